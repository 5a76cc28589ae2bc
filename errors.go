package embfile

import (
	"fmt"
	"strings"

	"github.com/janluke/embfile/core"
)

// Errors shared by all formats live in core; they are aliased here so that
// callers of this package rarely need to import core directly.
var (
	// ErrClosed is returned when using a file, reader or loader after Close.
	ErrClosed = core.ErrClosed

	// ErrLoaderActive is returned by Loader.MissingWords before exhaustion.
	ErrLoaderActive = core.ErrLoaderActive
)

// FileFormatError reports a malformed or corrupted embedding file.
type FileFormatError = core.FileFormatError

// MissingWordError is returned by Load when a requested word is not in the
// file.
type MissingWordError = core.MissingWordError

// DuplicateWordError is returned when creating a VVM file from a pair
// stream that repeats a word.
type DuplicateWordError = core.DuplicateWordError

// UnknownFormatError is returned when no registered format matches the
// requested format ID or the file extension.
type UnknownFormatError struct {
	FormatID  string
	Extension string
	Known     []string
}

func (e *UnknownFormatError) Error() string {
	known := strings.Join(e.Known, ", ")
	if e.FormatID != "" {
		return fmt.Sprintf("unknown format %q; registered formats are: %s", e.FormatID, known)
	}
	return fmt.Sprintf("no format registered for extension %q; registered formats are: %s",
		e.Extension, known)
}
