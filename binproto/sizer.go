package binproto

// SizeCounter is a Sink that records only how many bytes were appended. It is
// used to measure a value before allocating its output buffer.
type SizeCounter struct {
	n int
}

// NewSizeCounter returns a zeroed SizeCounter.
func NewSizeCounter() *SizeCounter {
	return &SizeCounter{}
}

func (c *SizeCounter) Append(p []byte)       { c.n += len(p) }
func (c *SizeCounter) AppendString(s string) { c.n += len(s) }
func (c *SizeCounter) AppendUint8(uint8)     { c.n++ }
func (c *SizeCounter) AppendUint16(uint16)   { c.n += 2 }
func (c *SizeCounter) AppendUint32(uint32)   { c.n += 4 }
func (c *SizeCounter) AppendUint64(uint64)   { c.n += 8 }

// Len returns the number of bytes counted so far.
func (c *SizeCounter) Len() int {
	return c.n
}

// Reset zeroes the count.
func (c *SizeCounter) Reset() {
	c.n = 0
}
