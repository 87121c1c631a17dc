package bufext

import "fmt"

/*
Input sources. SliceSource reads a borrowed contiguous slice. ChainSource
reads a sequence of chunks, as a network buffer assembled from received
segments would present them; a span that crosses a chunk boundary is not
contiguous and has to be copied out.

Advance and CopyTo panic when asked for more than Remaining. Readers
bounds-check before calling them.
*/

////////////////////////////////////////////////////////////////////////////////

// SliceSource reads from a single byte slice.
type SliceSource struct {
	data   []byte
	offset int
}

// NewSliceSource returns a source reading data. data is not copied.
func NewSliceSource(data []byte) *SliceSource {
	return &SliceSource{data: data}
}

func (s *SliceSource) Remaining() int {
	return len(s.data) - s.offset
}

func (s *SliceSource) Advance(n int) {
	if n < 0 || n > s.Remaining() {
		panic(fmt.Sprintf("bufext: advance %d with %d remaining", n, s.Remaining()))
	}
	s.offset += n
}

func (s *SliceSource) Chunk() []byte {
	return s.data[s.offset:]
}

func (s *SliceSource) CopyTo(dst []byte) {
	if len(dst) > s.Remaining() {
		panic(fmt.Sprintf("bufext: copy %d with %d remaining", len(dst), s.Remaining()))
	}
	s.offset += copy(dst, s.data[s.offset:])
}

// Offset returns the number of bytes consumed.
func (s *SliceSource) Offset() int {
	return s.offset
}

// Set replaces the source's data and rewinds it.
func (s *SliceSource) Set(data []byte) {
	s.data = data
	s.offset = 0
}

////////////////////////////////////////////////////////////////////////////////

// ChainSource reads from a sequence of chunks.
type ChainSource struct {
	chunks    [][]byte
	offset    int // offset within chunks[0]
	remaining int
	consumed  int
}

// NewChainSource returns a source reading the concatenation of chunks. Empty
// chunks are dropped.
func NewChainSource(chunks ...[]byte) *ChainSource {
	c := &ChainSource{}
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		c.chunks = append(c.chunks, chunk)
		c.remaining += len(chunk)
	}
	return c
}

func (c *ChainSource) Remaining() int {
	return c.remaining
}

func (c *ChainSource) Chunk() []byte {
	if len(c.chunks) == 0 {
		return nil
	}
	return c.chunks[0][c.offset:]
}

func (c *ChainSource) Advance(n int) {
	if n < 0 || n > c.remaining {
		panic(fmt.Sprintf("bufext: advance %d with %d remaining", n, c.remaining))
	}
	c.remaining -= n
	c.consumed += n
	for n > 0 {
		avail := len(c.chunks[0]) - c.offset
		if n < avail {
			c.offset += n
			return
		}
		n -= avail
		c.chunks = c.chunks[1:]
		c.offset = 0
	}
}

func (c *ChainSource) CopyTo(dst []byte) {
	if len(dst) > c.remaining {
		panic(fmt.Sprintf("bufext: copy %d with %d remaining", len(dst), c.remaining))
	}
	for copied := 0; copied < len(dst); {
		n := copy(dst[copied:], c.Chunk())
		c.Advance(n)
		copied += n
	}
}

// Offset returns the number of bytes consumed.
func (c *ChainSource) Offset() int {
	return c.consumed
}
