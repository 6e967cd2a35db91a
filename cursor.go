package html

import (
	"bufio"
	"io"
)

// A Cursor is a peekable, position-tracking reader over a byte source.
// Bytes fetched from the source but not yet consumed are held in a FIFO
// peek buffer, so any number of lookaheads can be taken without touching
// the source again. A byte reported by PeekN is guaranteed to be returned
// by a later call to Next.
//
// End of stream is reported as ok == false, never as an error. An I/O
// failure on the underlying source is fatal: it sticks, every subsequent
// operation reports ok == false, and Err returns the failure.
type Cursor struct {
	src       *bufio.Reader
	peeked    []byte
	bytesRead int
	err       error
}

func NewCursor(r io.Reader) *Cursor {
	return &Cursor{src: bufio.NewReader(r)}
}

// Err returns the first I/O error encountered on the underlying source,
// if any.
func (c *Cursor) Err() error { return c.err }

// BytesRead returns the number of bytes consumed so far with Next.
func (c *Cursor) BytesRead() int { return c.bytesRead }

// fill reads from the source until the peek buffer holds at least n
// bytes, and reports whether it got them.
func (c *Cursor) fill(n int) bool {
	for len(c.peeked) < n {
		if c.err != nil {
			return false
		}
		b, err := c.src.ReadByte()
		if err != nil {
			if err != io.EOF {
				c.err = err
			}
			return false
		}
		c.peeked = append(c.peeked, b)
	}
	return true
}

// Next consumes and returns the next byte.
func (c *Cursor) Next() (byte, bool) {
	if !c.fill(1) {
		return 0, false
	}
	b := c.peeked[0]
	c.peeked = c.peeked[1:]
	c.bytesRead++
	return b, true
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, bool) { return c.PeekN(0) }

// PeekN returns the byte n positions ahead of the current position
// without consuming anything.
func (c *Cursor) PeekN(n int) (byte, bool) {
	if !c.fill(n + 1) {
		return 0, false
	}
	return c.peeked[n], true
}

// PeekSlice returns up to n bytes of lookahead. The result is shorter
// than n only at the end of the stream.
func (c *Cursor) PeekSlice(n int) []byte {
	c.fill(n)
	if n > len(c.peeked) {
		n = len(c.peeked)
	}
	out := make([]byte, n)
	copy(out, c.peeked[:n])
	return out
}

func (c *Cursor) HasNext() bool { return c.fill(1) }

func (c *Cursor) HasNextN(n int) bool { return c.fill(n + 1) }

// PeekMax fills the peek buffer with up to max bytes, stopping early at
// the end of the stream. It guarantees the lookahead needed before
// pre-scanning.
func (c *Cursor) PeekMax(max int) { c.fill(max) }

// PeekLen returns the number of bytes currently in the peek buffer.
func (c *Cursor) PeekLen() int { return len(c.peeked) }

// ContainsBytes reports whether the stream contains exactly pattern
// starting offset bytes ahead of the current position.
func (c *Cursor) ContainsBytes(offset int, pattern []byte) bool {
	for i, want := range pattern {
		b, ok := c.PeekN(offset + i)
		if !ok || b != want {
			return false
		}
	}
	return true
}

// MatchesSequence reports whether each position starting offset bytes
// ahead matches some byte in the corresponding candidate set.
func (c *Cursor) MatchesSequence(offset int, alternatives [][]byte) bool {
	for i, set := range alternatives {
		b, ok := c.PeekN(offset + i)
		if !ok || !byteIn(set, b) {
			return false
		}
	}
	return true
}

func byteIn(set []byte, b byte) bool {
	for _, x := range set {
		if x == b {
			return true
		}
	}
	return false
}

// consume drains up to n bytes from the cursor and returns them.
func consume(c *Cursor, n int) []byte {
	buf := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, ok := c.Next()
		if !ok {
			break
		}
		buf = append(buf, b)
	}
	return buf
}
