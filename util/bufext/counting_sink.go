package bufext

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// CountingSink streams appended bytes to an io.Writer and counts them. Append
// methods cannot fail, so the first write error is held and reported by Flush;
// later appends are dropped.
type CountingSink struct {
	w       *bufio.Writer
	n       int
	err     error
	scratch [8]byte
}

// NewCountingSink returns a sink writing to w.
func NewCountingSink(w io.Writer) *CountingSink {
	return &CountingSink{w: bufio.NewWriter(w)}
}

func (c *CountingSink) write(p []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(p)
	c.n += n
	if err != nil {
		c.err = fmt.Errorf("write failure: %w", err)
	}
}

func (c *CountingSink) Append(p []byte) {
	c.write(p)
}

func (c *CountingSink) AppendString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += n
	if err != nil {
		c.err = fmt.Errorf("write failure: %w", err)
	}
}

func (c *CountingSink) AppendUint8(v uint8) {
	c.scratch[0] = v
	c.write(c.scratch[:1])
}

func (c *CountingSink) AppendUint16(v uint16) {
	binary.BigEndian.PutUint16(c.scratch[:], v)
	c.write(c.scratch[:2])
}

func (c *CountingSink) AppendUint32(v uint32) {
	binary.BigEndian.PutUint32(c.scratch[:], v)
	c.write(c.scratch[:4])
}

func (c *CountingSink) AppendUint64(v uint64) {
	binary.BigEndian.PutUint64(c.scratch[:], v)
	c.write(c.scratch[:8])
}

// Count returns the number of bytes accepted so far.
func (c *CountingSink) Count() int {
	return c.n
}

// Flush writes any buffered bytes and returns the first error encountered.
func (c *CountingSink) Flush() error {
	if c.err != nil {
		return c.err
	}
	if err := c.w.Flush(); err != nil {
		c.err = fmt.Errorf("write failure: %w", err)
	}
	return c.err
}
