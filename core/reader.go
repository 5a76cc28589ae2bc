package core

import "io"

// Reader is a forward-only cursor over a file's (word, vector) entries.
//
// Next parses exactly one entry and advances; it returns io.EOF once the
// declared number of entries has been yielded (trailing bytes are not an
// error, some formats pad), and a FileFormatError if the stream ends first.
//
// A reader owns its underlying byte stream exclusively: Close releases it,
// and separate readers over the same file never share cursor state.
type Reader interface {
	Next() (WordVector, error)

	// Read returns the number of entries yielded so far.
	Read() int

	Close() error
}

// Cursor tracks the shared reader state: how many entries have been yielded
// and whether the end has been reached. Format readers embed it and drive it
// from their Next implementation.
type Cursor struct {
	path     string
	declared int // -1 when the entry count is unknown
	read     int
	done     bool
}

// NewCursor returns a cursor for a stream declaring the given entry count
// (use -1 for unknown).
func NewCursor(path string, declared int) Cursor {
	return Cursor{path: path, declared: declared}
}

// Read returns the number of entries yielded so far.
func (c *Cursor) Read() int { return c.read }

// Done reports whether the cursor has reached the end.
func (c *Cursor) Done() bool { return c.done }

// AtDeclaredEnd reports whether the declared entry count has been reached.
// It is false when no count was declared.
func (c *Cursor) AtDeclaredEnd() bool {
	return c.declared >= 0 && c.read == c.declared
}

// Advance records one yielded entry.
func (c *Cursor) Advance() { c.read++ }

// Finish marks the cursor exhausted and returns io.EOF.
func (c *Cursor) Finish() error {
	c.done = true
	return io.EOF
}

// PhysicalEOF handles the underlying stream ending: it is a normal end when
// no entry count was declared or the declared count was reached, and a
// truncation error otherwise.
func (c *Cursor) PhysicalEOF() error {
	c.done = true
	if c.declared >= 0 && c.read < c.declared {
		return NewTruncatedError(c.path, c.declared, c.read)
	}
	return io.EOF
}
