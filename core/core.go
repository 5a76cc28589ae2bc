package core

import (
	"fmt"
	"io"
	"iter"
	"sort"

	"github.com/janluke/embfile/dtype"
)

// WordVector is a (word, vector) pair. It is a value type: two pairs with the
// same content are interchangeable.
type WordVector struct {
	Word   string
	Vector []float64
}

func (wv WordVector) String() string {
	return fmt.Sprintf("WordVector(%q, %v)", wv.Word, wv.Vector)
}

// EmbFile is an open embedding file of any format.
//
// Metadata accessors are cheap and valid immediately after a successful open.
// Reader and Loader hand out independent cursors; each owns its stream and
// must be closed, though Close on the file releases any still-open ones.
//
// EmbFile and its readers/loaders are not safe for concurrent use.
type EmbFile interface {
	// Path returns the path the file was opened from.
	Path() string

	// VocabSize returns the number of entries in the file, or -1 when it is
	// unknown (headerless text files without an explicit size).
	VocabSize() int

	// VectorSize returns the number of components per vector.
	VectorSize() int

	// DType returns the on-disk element type of the vectors.
	DType() dtype.DType

	// Reader returns a new forward-only cursor positioned at the first entry.
	Reader() (Reader, error)

	// Loader returns a loader matching the requested words against the file.
	// Sequential formats scan once front to back; indexed formats (VVM) use
	// random access.
	Loader(words []string) (Loader, error)

	// Close releases the file and every reader/loader created from it.
	Close() error
}

// Loader matches a requested word set against a file's contents.
//
// Next yields the found (word, vector) pairs lazily and returns io.EOF once
// no more requested words can be found. The order of yielded pairs is
// unspecified; callers must not rely on it matching the request order.
type Loader interface {
	Next() (WordVector, error)

	// MissingWords returns the requested words that were not found, sorted.
	// It returns ErrLoaderActive until the loader is exhausted.
	MissingWords() ([]string, error)

	Close() error
}

// PairSeq is a stream of (word, vector) pairs with error propagation, used as
// creation input so that files can be converted without materializing them.
type PairSeq = iter.Seq2[WordVector, error]

// Pairs returns a PairSeq over the given pairs, in order.
func Pairs(wvs ...WordVector) PairSeq {
	return func(yield func(WordVector, error) bool) {
		for _, wv := range wvs {
			if !yield(wv, nil) {
				return
			}
		}
	}
}

// PairsFromMap returns a PairSeq over the map entries, sorted by word so the
// resulting file content is deterministic.
func PairsFromMap(m map[string][]float64) PairSeq {
	words := make([]string, 0, len(m))
	for w := range m {
		words = append(words, w)
	}
	sort.Strings(words)

	return func(yield func(WordVector, error) bool) {
		for _, w := range words {
			if !yield(WordVector{Word: w, Vector: m[w]}, nil) {
				return
			}
		}
	}
}

// FilePairs streams the full content of an open file. The reader it drives is
// closed when the sequence ends, whether it was fully consumed or not.
func FilePairs(f EmbFile) PairSeq {
	return func(yield func(WordVector, error) bool) {
		r, err := f.Reader()
		if err != nil {
			yield(WordVector{}, err)
			return
		}
		defer r.Close()

		for {
			wv, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(WordVector{}, err)
				return
			}
			if !yield(wv, nil) {
				return
			}
		}
	}
}

// OpenOptions carries the open-time configuration common to all formats.
// The zero value is valid.
type OpenOptions struct {
	// DType declares the on-disk element type for formats whose container
	// does not record it (the word2vec binary format). The zero value
	// selects the format's default (little-endian float32).
	DType dtype.DType

	// OutDType, when valid, is the element type loaders convert vectors to
	// after decoding. The conversion is an explicit post-decode step; readers
	// always yield vectors at the file's native precision.
	OutDType dtype.DType

	// VocabSize declares the entry count for formats that cannot know it
	// (headerless text files). 0 means unknown.
	VocabSize int

	// Logger receives debug events for slow paths. Nil disables logging.
	Logger *Logger
}

// Log returns the configured logger or a no-op one.
func (o *OpenOptions) Log() *Logger {
	if o == nil || o.Logger == nil {
		return NoopLogger()
	}
	return o.Logger
}

// CreateOptions carries the creation-time configuration common to all
// formats. The zero value is valid.
type CreateOptions struct {
	// DType is the element type vectors are encoded with. The zero value
	// selects the format's default (little-endian float32).
	DType dtype.DType

	// Compression is the tag of the stream compression applied to the whole
	// output file ("gzip", "zstd", "lz4"). Empty means none.
	Compression string

	// Precision is the number of decimals written by the text format.
	// 0 selects the default.
	Precision int

	// VocabSize declares the entry count up front for formats whose header
	// requires it before the data is written (txt, bin). It must match the
	// actual number of pairs. 0 means unknown.
	VocabSize int

	// Overwrite replaces an existing file instead of failing.
	Overwrite bool

	// OverwriteOnDuplicate keeps the last occurrence of a duplicated input
	// word instead of failing with a DuplicateWordError. Only meaningful for
	// formats with a keyed vocabulary (VVM).
	OverwriteOnDuplicate bool

	// Logger receives debug events for slow paths. Nil disables logging.
	Logger *Logger
}

// Log returns the configured logger or a no-op one.
func (o *CreateOptions) Log() *Logger {
	if o == nil || o.Logger == nil {
		return NoopLogger()
	}
	return o.Logger
}

// Format describes a registered embedding file format: its identifier, the
// file extensions associated with it, and its capability set.
type Format struct {
	// ID is the stable format identifier ("txt", "bin", "vvm").
	ID string

	// Extensions lists the file extensions (with leading dot) the format is
	// inferred from.
	Extensions []string

	// Open opens an existing file of this format.
	Open func(path string, opts *OpenOptions) (EmbFile, error)

	// Create writes a new file of this format from a stream of pairs.
	Create func(path string, pairs PairSeq, opts *CreateOptions) error
}
