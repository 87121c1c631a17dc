package binproto

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

/*
The Reader parses primitives and boundary markers from a Source. Every read is
bounds-checked against the bytes remaining before anything is consumed or
allocated, since the bytes come from an untrusted peer. Like the Writer, it
knows nothing of schemas: it validates only what the bytes themselves say
(type tags, lengths, counts and the version magic) and trusts the calling code
to walk them in schema order.

A Reader holds a reusable skip stack and is not safe for concurrent use.
Independent Readers over independent buffers may be used in parallel.
*/

////////////////////////////////////////////////////////////////////////////////

// Source supplies input bytes. Chunk returns the contiguous bytes at the
// cursor, which may be fewer than Remaining when the source is segmented.
// Advance and CopyTo are only called with n <= Remaining().
type Source interface {
	Remaining() int
	Advance(n int)
	Chunk() []byte
	CopyTo(dst []byte)
}

// Reader decodes primitives from a Source.
type Reader struct {
	src     Source
	opts    Options
	stack   []skipFrame
	scratch [8]byte
}

// NewReader returns a reader consuming src.
func NewReader(src Source, opts ...Option) *Reader {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Reader{
		src:  src,
		opts: options,
	}
}

// Source returns the reader's underlying source.
func (r *Reader) Source() Source {
	return r.src
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.src.Remaining()
}

// CanAdvance reports whether at least n bytes remain.
func (r *Reader) CanAdvance(n int) bool {
	return n >= 0 && r.src.Remaining() >= n
}

// MaxDepth returns the configured nesting limit.
func (r *Reader) MaxDepth() int {
	return r.opts.MaxDepth
}

// ReadMessageBegin reads a message header.
func (r *Reader) ReadMessageBegin() (string, MessageType, uint32, error) {
	var name string
	typ, seqid, err := r.ReadMessageBeginFunc(func(b []byte) {
		name = string(b)
	})
	if err != nil {
		return "", 0, 0, err
	}
	return name, typ, seqid, nil
}

// ReadMessageBeginFunc reads a message header, passing the method name to fn.
// When the name is contiguous in the source, fn sees the source's own bytes
// and must not retain them.
func (r *Reader) ReadMessageBeginFunc(fn func(name []byte)) (MessageType, uint32, error) {
	word, err := r.readUint32("message header")
	if err != nil {
		return 0, 0, err
	}
	if word&VersionMask != Version1 {
		return 0, 0, fmt.Errorf("%w: header word %#08x", ErrBadVersion, word)
	}
	typ, err := ParseMessageType(word &^ VersionMask)
	if err != nil {
		return 0, 0, err
	}
	n, err := r.readLength("message name")
	if err != nil {
		return 0, 0, err
	}
	if err := r.need("message name", n); err != nil {
		return 0, 0, err
	}
	if chunk := r.src.Chunk(); len(chunk) >= n {
		fn(chunk[:n])
		r.src.Advance(n)
	} else {
		buf := make([]byte, n)
		r.src.CopyTo(buf)
		fn(buf)
	}
	seqid, err := r.readUint32("sequence id")
	if err != nil {
		return 0, 0, err
	}
	return typ, seqid, nil
}

func (r *Reader) ReadMessageEnd() error { return nil }

// ReadStructBegin is a no-op; struct names are not encoded.
func (r *Reader) ReadStructBegin() error { return nil }

func (r *Reader) ReadStructEnd() error { return nil }

// ReadFieldBegin reads a field header. On STOP the returned id is zero and
// nothing further is consumed.
func (r *Reader) ReadFieldBegin() (TType, int16, error) {
	typ, err := r.readTType("field type")
	if err != nil {
		return 0, 0, err
	}
	if typ == STOP {
		return STOP, 0, nil
	}
	id, err := r.ReadI16()
	if err != nil {
		return 0, 0, err
	}
	return typ, id, nil
}

func (r *Reader) ReadFieldEnd() error { return nil }

// ReadMapBegin reads a map header.
func (r *Reader) ReadMapBegin() (TType, TType, int, error) {
	keyType, err := r.readTType("map key type")
	if err != nil {
		return 0, 0, 0, err
	}
	valueType, err := r.readTType("map value type")
	if err != nil {
		return 0, 0, 0, err
	}
	size, err := r.readCount("map")
	if err != nil {
		return 0, 0, 0, err
	}
	return keyType, valueType, size, nil
}

func (r *Reader) ReadMapKeyBegin() error   { return nil }
func (r *Reader) ReadMapValueBegin() error { return nil }
func (r *Reader) ReadMapEnd() error        { return nil }

// ReadListBegin reads a list header.
func (r *Reader) ReadListBegin() (TType, int, error) {
	return r.readCollectionBegin("list")
}

func (r *Reader) ReadListValueBegin() error { return nil }
func (r *Reader) ReadListEnd() error        { return nil }

// ReadSetBegin reads a set header.
func (r *Reader) ReadSetBegin() (TType, int, error) {
	return r.readCollectionBegin("set")
}

func (r *Reader) ReadSetValueBegin() error { return nil }
func (r *Reader) ReadSetEnd() error        { return nil }

// ReadBool reads a bool. Any nonzero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.fixed("bool", 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadI8 reads a BYTE value.
func (r *Reader) ReadI8() (int8, error) {
	b, err := r.fixed("byte", 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) ReadI16() (int16, error) {
	b, err := r.fixed("i16", 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.readUint32("i32")
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	b, err := r.fixed("i64", 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) ReadDouble() (float64, error) {
	b, err := r.fixed("double", 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.readUint32("float")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadString reads a length-prefixed string and validates that it is UTF-8.
// Payloads that are not UTF-8 must be read with ReadBinary.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBinaryView()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", InvalidUTF8Error{Length: len(b)}
	}
	return string(b), nil
}

// ReadBinary reads a length-prefixed byte string into a new slice.
func (r *Reader) ReadBinary() ([]byte, error) {
	n, err := r.readLength("binary")
	if err != nil {
		return nil, err
	}
	if err := r.need("binary", n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	r.src.CopyTo(out)
	return out, nil
}

// ReadBinaryView reads a length-prefixed byte string. If the bytes are
// contiguous in the source the result aliases them and is only valid as long
// as the source's buffer is; otherwise it is a copy.
func (r *Reader) ReadBinaryView() ([]byte, error) {
	n, err := r.readLength("binary")
	if err != nil {
		return nil, err
	}
	if err := r.need("binary", n); err != nil {
		return nil, err
	}
	if chunk := r.src.Chunk(); len(chunk) >= n {
		r.src.Advance(n)
		return chunk[:n:n], nil
	}
	out := make([]byte, n)
	r.src.CopyTo(out)
	return out, nil
}

// skipBinary consumes a length-prefixed byte string without validating or
// copying it.
func (r *Reader) skipBinary() error {
	n, err := r.readLength("binary")
	if err != nil {
		return err
	}
	return r.advance("binary", n)
}

func (r *Reader) readCollectionBegin(what string) (TType, int, error) {
	elemType, err := r.readTType(what + " element type")
	if err != nil {
		return 0, 0, err
	}
	size, err := r.readCount(what)
	if err != nil {
		return 0, 0, err
	}
	return elemType, size, nil
}

func (r *Reader) readTType(what string) (TType, error) {
	b, err := r.fixed(what, 1)
	if err != nil {
		return 0, err
	}
	return ParseTType(int8(b[0]))
}

// readCount reads a container element count, rejecting negative values.
func (r *Reader) readCount(what string) (int, error) {
	v, err := r.readUint32(what + " size")
	if err != nil {
		return 0, err
	}
	if n := int32(v); n < 0 {
		return 0, fmt.Errorf("%s size %d: %w", what, n, ErrInvalidDataLength)
	}
	return int(v), nil
}

// readLength reads a string or binary length prefix, rejecting negative and
// over-limit values.
func (r *Reader) readLength(what string) (int, error) {
	v, err := r.readUint32(what + " length")
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, fmt.Errorf("%s length %d: %w", what, n, ErrInvalidDataLength)
	}
	if limit := r.opts.MaxStringLength; limit > 0 && int(n) > limit {
		return 0, fmt.Errorf("%s length %d exceeds limit %d: %w", what, n, limit, ErrInvalidDataLength)
	}
	return int(n), nil
}

func (r *Reader) readUint32(what string) (uint32, error) {
	b, err := r.fixed(what, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// fixed consumes n bytes, n <= 8, returning a view of them. The view is only
// valid until the next read.
func (r *Reader) fixed(what string, n int) ([]byte, error) {
	if err := r.need(what, n); err != nil {
		return nil, err
	}
	if chunk := r.src.Chunk(); len(chunk) >= n {
		r.src.Advance(n)
		return chunk[:n], nil
	}
	b := r.scratch[:n]
	r.src.CopyTo(b)
	return b, nil
}

func (r *Reader) need(what string, n int) error {
	if have := r.src.Remaining(); have < n {
		return ShortReadError{What: what, Want: n, Have: have}
	}
	return nil
}

func (r *Reader) advance(what string, n int) error {
	if err := r.need(what, n); err != nil {
		return err
	}
	r.src.Advance(n)
	return nil
}
