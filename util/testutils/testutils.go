package testutils

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"testing"

	"github.com/wkalt/tbin/binproto"
)

/*
Helpers for building wire payloads by hand in tests. All multi-byte values are
big-endian, matching the protocol. Compose them with Flatten:

	testutils.Flatten(
		testutils.FieldHeader(binproto.I32, 1), testutils.I32b(7),
		testutils.Stop(),
	)
*/

////////////////////////////////////////////////////////////////////////////////

// GetOpenPort returns an open port that can be used for testing.
func GetOpenPort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("failed to get open port: %w", err)
	}
	defer l.Close()
	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address %s", l.Addr())
	}
	return addr.Port, nil
}

// Flatten flattens a list of slices into a single slice.
func Flatten[T any](slices ...[]T) []T {
	var result = []T{}
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}

// U8b returns a byte slice containing a single uint8 value.
func U8b(v uint8) []byte {
	return []byte{v}
}

// U16b returns a byte slice containing a single uint16 value.
func U16b(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// U32b returns a byte slice containing a single uint32 value.
func U32b(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// U64b returns a byte slice containing a single uint64 value.
func U64b(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func I8b(v int8) []byte {
	return U8b(uint8(v))
}

func I16b(v int16) []byte {
	return U16b(uint16(v))
}

func I32b(v int32) []byte {
	return U32b(uint32(v))
}

func I64b(v int64) []byte {
	return U64b(uint64(v))
}

// F32b returns a byte slice containing a single float32 value.
func F32b(v float32) []byte {
	return U32b(math.Float32bits(v))
}

// F64b returns a byte slice containing a single float64 value.
func F64b(v float64) []byte {
	return U64b(math.Float64bits(v))
}

func Boolb(v bool) []byte {
	if v {
		return U8b(1)
	}
	return U8b(0)
}

// PrefixedString returns a string prefixed with its length.
func PrefixedString(s string) []byte {
	return append(I32b(int32(len(s))), s...)
}

// FieldHeader returns a struct field header.
func FieldHeader(t binproto.TType, id int16) []byte {
	return append(U8b(uint8(t)), I16b(id)...)
}

// Stop returns the struct terminator.
func Stop() []byte {
	return U8b(uint8(binproto.STOP))
}

// ListHeader returns a list or set header declaring n elements.
func ListHeader(elem binproto.TType, n int32) []byte {
	return append(U8b(uint8(elem)), I32b(n)...)
}

// MapHeader returns a map header declaring n entries.
func MapHeader(key, value binproto.TType, n int32) []byte {
	return Flatten(U8b(uint8(key)), U8b(uint8(value)), I32b(n))
}

// MessageHeader returns a version 1 message header.
func MessageHeader(name string, typ binproto.MessageType, seqid uint32) []byte {
	return Flatten(
		U32b(binproto.Version1|uint32(typ)),
		PrefixedString(name),
		U32b(seqid),
	)
}

// NestedLists returns depth list headers, each declaring one list element,
// around an empty list of i32.
func NestedLists(depth int) []byte {
	out := []byte{}
	for i := 0; i < depth; i++ {
		out = append(out, ListHeader(binproto.LIST, 1)...)
	}
	return append(out, ListHeader(binproto.I32, 0)...)
}

// Must converts an interface to a specific type or fails the test.
func Must[T any](t *testing.T, x any) T {
	t.Helper()
	v, ok := x.(T)
	if !ok {
		t.Fatalf("failed to convert %T to %T", x, v)
	}
	return v
}
