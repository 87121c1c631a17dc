package bufext

import (
	"encoding/binary"
	"fmt"
)

/*
Buffer is an output sink for encoded bytes. A growable buffer behaves like an
append-only byte slice. A fixed buffer is allocated once at a size measured in
advance and panics if asked to hold more, which is how the two-pass serializer
detects an encoder whose passes disagree.
*/

////////////////////////////////////////////////////////////////////////////////

// Buffer is an append-only byte sink.
type Buffer struct {
	buf   []byte
	fixed bool
}

// NewBuffer returns a growable buffer with the given initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// NewFixedBuffer returns a buffer that holds exactly size bytes.
func NewFixedBuffer(size int) *Buffer {
	return &Buffer{buf: make([]byte, 0, size), fixed: true}
}

func (b *Buffer) grow(n int) {
	if b.fixed && len(b.buf)+n > cap(b.buf) {
		panic(fmt.Sprintf("bufext: fixed buffer overflow: %d+%d > %d", len(b.buf), n, cap(b.buf)))
	}
}

func (b *Buffer) Append(p []byte) {
	b.grow(len(p))
	b.buf = append(b.buf, p...)
}

func (b *Buffer) AppendString(s string) {
	b.grow(len(s))
	b.buf = append(b.buf, s...)
}

func (b *Buffer) AppendUint8(v uint8) {
	b.grow(1)
	b.buf = append(b.buf, v)
}

func (b *Buffer) AppendUint16(v uint16) {
	b.grow(2)
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
}

func (b *Buffer) AppendUint32(v uint32) {
	b.grow(4)
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
}

func (b *Buffer) AppendUint64(v uint64) {
	b.grow(8)
	b.buf = binary.BigEndian.AppendUint64(b.buf, v)
}

// Bytes returns the bytes written so far. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the buffer's capacity.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}
