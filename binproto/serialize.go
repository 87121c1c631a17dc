package binproto

import (
	"fmt"
	"io"

	"github.com/wkalt/tbin/util/bufext"
)

/*
Two-pass serialization. A value's write sequence runs once against a
SizeCounter to learn its exact encoded length, then once against a buffer
allocated at exactly that length. The output has no slack and the buffer never
grows during the real pass.

This relies on the write sequence being deterministic. If the second pass
emits more or fewer bytes than the first predicted, Serialize panics: that is
a bug in the Encode implementation, not a condition a caller can recover from.
*/

////////////////////////////////////////////////////////////////////////////////

// Encodable is implemented by values that can write themselves. Encode must
// make the same calls in the same order every time it is called on an
// unchanged value.
type Encodable interface {
	Encode(w *Writer)
}

// Decodable is implemented by values that can read themselves.
type Decodable interface {
	Decode(r *Reader) error
}

// EncodeFunc adapts a function to the Encodable interface.
type EncodeFunc func(w *Writer)

// Encode calls f(w).
func (f EncodeFunc) Encode(w *Writer) {
	f(w)
}

// SerializedSize returns the number of bytes Serialize will produce for v.
func SerializedSize(v Encodable) int {
	counter := NewSizeCounter()
	v.Encode(NewWriter(counter))
	return counter.Len()
}

// Serialize encodes v into a newly allocated, exactly sized slice.
func Serialize(v Encodable) []byte {
	size := SerializedSize(v)
	buf := bufext.NewFixedBuffer(size)
	v.Encode(NewWriter(buf))
	if buf.Len() != size {
		panic(fmt.Sprintf(
			"binproto: nondeterministic encoding: measured %d bytes, wrote %d", size, buf.Len(),
		))
	}
	return buf.Bytes()
}

// SerializeFunc serializes the call sequence made by fn.
func SerializeFunc(fn func(w *Writer)) []byte {
	return Serialize(EncodeFunc(fn))
}

// WriteTo streams v to dst without materializing it, returning the number of
// bytes written. The count is checked against a measuring pass the same way
// Serialize checks its buffer.
func WriteTo(dst io.Writer, v Encodable) (int, error) {
	size := SerializedSize(v)
	sink := bufext.NewCountingSink(dst)
	v.Encode(NewWriter(sink))
	if err := sink.Flush(); err != nil {
		return sink.Count(), err
	}
	if sink.Count() != size {
		panic(fmt.Sprintf(
			"binproto: nondeterministic encoding: measured %d bytes, wrote %d", size, sink.Count(),
		))
	}
	return size, nil
}

// Deserialize decodes v from data.
func Deserialize(data []byte, v Decodable, opts ...Option) error {
	r := NewReader(bufext.NewSliceSource(data), opts...)
	return v.Decode(r)
}
