package binproto

import "strconv"

/*
Wire type tags and message types. The numeric codes are fixed by the protocol;
the gaps at 5, 7 and 9 are reserved and fail to parse.
*/

////////////////////////////////////////////////////////////////////////////////

// TType is the wire discriminant identifying the shape of an encoded value.
type TType int8

const (
	STOP   TType = 0
	VOID   TType = 1
	BOOL   TType = 2
	BYTE   TType = 3
	DOUBLE TType = 4
	I16    TType = 6
	I32    TType = 8
	I64    TType = 10
	STRING TType = 11
	STRUCT TType = 12
	MAP    TType = 13
	SET    TType = 14
	LIST   TType = 15
	UTF8   TType = 16
	UTF16  TType = 17
	STREAM TType = 18
	FLOAT  TType = 19
)

const numTypes = 20

// fixedSizes holds the encoded width of each type, indexed by code. Zero means
// variable width (or no value at all, for STOP and VOID).
var fixedSizes = [numTypes]int{
	STOP:   0,
	VOID:   0,
	BOOL:   1,
	BYTE:   1,
	DOUBLE: 8,
	I16:    2,
	I32:    4,
	I64:    8,
	STRING: 0,
	STRUCT: 0,
	MAP:    0,
	SET:    0,
	LIST:   0,
	UTF8:   0,
	UTF16:  0,
	STREAM: 0,
	FLOAT:  4,
}

var validTypes = [numTypes]bool{
	STOP: true, VOID: true, BOOL: true, BYTE: true, DOUBLE: true, I16: true,
	I32: true, I64: true, STRING: true, STRUCT: true, MAP: true, SET: true,
	LIST: true, UTF8: true, UTF16: true, STREAM: true, FLOAT: true,
}

var typeNames = [numTypes]string{
	STOP:   "stop",
	VOID:   "void",
	BOOL:   "bool",
	BYTE:   "byte",
	DOUBLE: "double",
	I16:    "i16",
	I32:    "i32",
	I64:    "i64",
	STRING: "string",
	STRUCT: "struct",
	MAP:    "map",
	SET:    "set",
	LIST:   "list",
	UTF8:   "utf8",
	UTF16:  "utf16",
	STREAM: "stream",
	FLOAT:  "float",
}

// ParseTType converts a wire code into a TType.
func ParseTType(code int8) (TType, error) {
	if code < 0 || int(code) >= numTypes || !validTypes[code] {
		return 0, InvalidTypeError{Code: code}
	}
	return TType(code), nil
}

// FixedSize returns the encoded width of t, or zero if t is variable width.
func (t TType) FixedSize() int {
	if t < 0 || int(t) >= numTypes {
		return 0
	}
	return fixedSizes[t]
}

func (t TType) String() string {
	if t >= 0 && int(t) < numTypes && validTypes[t] {
		return typeNames[t]
	}
	return "ttype(" + strconv.Itoa(int(t)) + ")"
}

// MinSize returns the smallest number of bytes any encoding of a value of type
// t can occupy. Callers decoding a container can multiply it by the declared
// element count and compare against the bytes remaining before allocating
// storage for the elements. STOP and STREAM have no encodable value and
// return zero.
func MinSize(t TType) int {
	switch t {
	case BOOL, BYTE:
		return 1
	case I16:
		return 2
	case I32, FLOAT:
		return 4
	case I64, DOUBLE:
		return 8
	case STRING, UTF8, UTF16:
		return 4
	case STRUCT:
		return 1
	case MAP:
		return 6
	case SET, LIST:
		return 5
	default:
		return 0
	}
}

////////////////////////////////////////////////////////////////////////////////

// MessageType identifies the role of a message envelope.
type MessageType uint32

const (
	CALL      MessageType = 1
	REPLY     MessageType = 2
	EXCEPTION MessageType = 3
	ONEWAY    MessageType = 4
)

// ParseMessageType converts the low bits of a message header into a
// MessageType.
func ParseMessageType(code uint32) (MessageType, error) {
	switch MessageType(code) {
	case CALL, REPLY, EXCEPTION, ONEWAY:
		return MessageType(code), nil
	default:
		return 0, InvalidMessageTypeError{Code: code}
	}
}

func (m MessageType) String() string {
	switch m {
	case CALL:
		return "call"
	case REPLY:
		return "reply"
	case EXCEPTION:
		return "exception"
	case ONEWAY:
		return "oneway"
	default:
		return "messagetype(" + strconv.FormatUint(uint64(m), 10) + ")"
	}
}
