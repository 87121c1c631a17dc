package dynamic

import "github.com/wkalt/tbin/binproto"

/*
Package dynamic decodes and encodes values without a schema. The binary
protocol is self-describing enough for this: every struct field and container
carries its type tags on the wire, so any well-formed payload can be read into
a tree of Values, inspected, and written back byte for byte.

This is the same walk generated code does when it meets a field id it does
not know, except that the value is retained rather than skipped.
*/

////////////////////////////////////////////////////////////////////////////////

// Value is a decoded value of any wire type.
type Value interface {
	Type() binproto.TType
}

type (
	Void   struct{}
	Bool   bool
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	Double float64
	Float  float32
)

func (Void) Type() binproto.TType   { return binproto.VOID }
func (Bool) Type() binproto.TType   { return binproto.BOOL }
func (I8) Type() binproto.TType     { return binproto.BYTE }
func (I16) Type() binproto.TType    { return binproto.I16 }
func (I32) Type() binproto.TType    { return binproto.I32 }
func (I64) Type() binproto.TType    { return binproto.I64 }
func (Double) Type() binproto.TType { return binproto.DOUBLE }
func (Float) Type() binproto.TType  { return binproto.FLOAT }

// Binary is a length-prefixed payload. Tag is STRING, UTF8 or UTF16; all three
// share an encoding and differ only in how the peer meant them.
type Binary struct {
	Tag  binproto.TType
	Data []byte
}

func (b Binary) Type() binproto.TType {
	if b.Tag == 0 {
		return binproto.STRING
	}
	return b.Tag
}

// NewString returns a STRING value holding s.
func NewString(s string) Binary {
	return Binary{Tag: binproto.STRING, Data: []byte(s)}
}

// Field is one struct member.
type Field struct {
	ID    int16
	Value Value
}

// Struct is a sequence of fields in wire order.
type Struct struct {
	Fields []Field
}

func (*Struct) Type() binproto.TType { return binproto.STRUCT }

// Get returns the first field with the given id.
func (s *Struct) Get(id int16) (Value, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return nil, false
}

// List is a homogeneous sequence.
type List struct {
	Elem  binproto.TType
	Items []Value
}

func (*List) Type() binproto.TType { return binproto.LIST }

// Set has the same shape as List. Uniqueness is not checked.
type Set struct {
	Elem  binproto.TType
	Items []Value
}

func (*Set) Type() binproto.TType { return binproto.SET }

// MapEntry is a key/value pair.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map holds entries in wire order. Duplicate keys are kept.
type Map struct {
	Key     binproto.TType
	Value   binproto.TType
	Entries []MapEntry
}

func (*Map) Type() binproto.TType { return binproto.MAP }
