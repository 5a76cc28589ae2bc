package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned when a closed file, reader or loader is used.
	ErrClosed = errors.New("use of closed embedding file")

	// ErrLoaderActive is returned by Loader.MissingWords while the loader has
	// not been exhausted yet: the missing-word set is only final at the end.
	ErrLoaderActive = errors.New("missing words are only known once the loader is exhausted")
)

// FileFormatError indicates structural corruption: a declared versus actual
// entry-count mismatch, a malformed record, or an index that disagrees with
// its vector block.
//
// Expected and Actual carry entry counts when the corruption is a count
// mismatch; both are -1 otherwise.
type FileFormatError struct {
	Path     string
	Entry    int // index of the offending entry, -1 if not tied to one
	Expected int
	Actual   int
	Reason   string
}

func (e *FileFormatError) Error() string {
	var b strings.Builder
	b.WriteString("malformed embedding file")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Entry >= 0 {
		fmt.Fprintf(&b, " (entry %d)", e.Entry)
	}
	if e.Expected >= 0 || e.Actual >= 0 {
		fmt.Fprintf(&b, ": expected %d, got %d", e.Expected, e.Actual)
	}
	return b.String()
}

// NewFormatError returns a FileFormatError not tied to an entry count.
func NewFormatError(path string, entry int, format string, args ...any) *FileFormatError {
	return &FileFormatError{
		Path:     path,
		Entry:    entry,
		Expected: -1,
		Actual:   -1,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// NewTruncatedError returns the FileFormatError for a stream that ended
// before yielding the declared number of entries.
func NewTruncatedError(path string, declared, read int) *FileFormatError {
	return &FileFormatError{
		Path:     path,
		Entry:    -1,
		Expected: declared,
		Actual:   read,
		Reason:   "fewer entries than declared",
	}
}

// MissingWordError is returned by the strict Load operation when requested
// words are absent from the file vocabulary. Find and loaders never fail on
// missing words.
type MissingWordError struct {
	Words []string
}

func (e *MissingWordError) Error() string {
	const maxListed = 20
	listed := e.Words
	suffix := ""
	if len(listed) > maxListed {
		listed = listed[:maxListed]
		suffix = ", ..."
	}
	return fmt.Sprintf("%d words are missing from the file vocabulary: %s%s",
		len(e.Words), strings.Join(listed, ", "), suffix)
}

// DuplicateWordError is returned at creation time when the input contains the
// same word twice and no overwrite policy was requested.
type DuplicateWordError struct {
	Word  string
	Entry int
}

func (e *DuplicateWordError) Error() string {
	return fmt.Sprintf("duplicate word %q at entry %d (set an overwrite-on-duplicate policy to keep the last occurrence)",
		e.Word, e.Entry)
}
