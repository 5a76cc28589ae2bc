// Package vvm implements the VVM embedding container: a tar archive holding
// a metadata member (meta.json), the vocabulary (vocab.txt, one word per
// line in file order) and a dense block of encoded vectors (vectors.bin).
//
// Fixed-size rows make the vector of the i-th word addressable directly, so
// a VVM file supports constant-time word lookups without loading the file
// into memory. Compressed containers are decompressed into a temporary file
// on open, since compressed streams are not seekable.
package vvm

import (
	"archive/tar"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/janluke/embfile/compression"
	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/dtype"
)

// FormatID is the registry identifier of this format.
const FormatID = "vvm"

// Archive member names.
const (
	metaMember    = "meta.json"
	vocabMember   = "vocab.txt"
	vectorsMember = "vectors.bin"
)

// FormatVersion is the version written to new files. Readers accept only
// this version.
const FormatVersion = 1

// Descriptor describes this format for registration.
var Descriptor = core.Format{
	ID:         FormatID,
	Extensions: []string{".vvm"},
	Open:       openFile,
	Create:     Create,
}

type metadata struct {
	FormatVersion int         `json:"format_version"`
	VocabSize     int         `json:"vocab_size"`
	VectorSize    int         `json:"vector_size"`
	DType         dtype.DType `json:"dtype"`
}

// File is an open VVM container.
type File struct {
	path    string
	meta    metadata
	out     dtype.DType
	logger  *core.Logger
	archive *os.File
	tmpPath string // extracted copy of a compressed container, "" otherwise

	words     []string       // vocabulary in file order
	positions map[string]int // word to row index
	vecOffset int64          // vectors.bin data offset within the archive
	rowBytes  int64

	cursors core.CloserSet
	closed  bool
}

// Open opens a VVM container and indexes its vocabulary.
func Open(path string, opts *core.OpenOptions) (*File, error) {
	if opts == nil {
		opts = &core.OpenOptions{}
	}
	f := &File{
		path:   path,
		out:    opts.OutDType,
		logger: opts.Log().WithFormat(FormatID).WithPath(path),
	}

	archivePath := path
	if _, compressed := compression.ByExtension(filepath.Ext(path)); compressed {
		tmp, err := compression.ExtractTemp(path)
		if err != nil {
			return nil, err
		}
		f.tmpPath = tmp
		archivePath = tmp
		f.logger.Debug("extracted compressed container", "tmp", tmp)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		f.cleanup()
		return nil, err
	}
	f.archive = archive

	if err := f.index(); err != nil {
		archive.Close()
		f.cleanup()
		return nil, err
	}
	return f, nil
}

func openFile(path string, opts *core.OpenOptions) (core.EmbFile, error) {
	return Open(path, opts)
}

func (f *File) cleanup() {
	if f.tmpPath != "" {
		os.Remove(f.tmpPath)
		f.tmpPath = ""
	}
}

// countingReader tracks how many bytes the tar reader has consumed. The tar
// format is block-aligned and archive/tar reads it without lookahead, so
// right after Next() the count is the file offset of the member's data.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// index scans the archive once, parsing meta.json and vocab.txt and
// recording where the vector block lives.
func (f *File) index() error {
	if _, err := f.archive.Seek(0, io.SeekStart); err != nil {
		return err
	}
	cr := &countingReader{r: bufio.NewReaderSize(f.archive, 1<<16)}
	tr := tar.NewReader(cr)

	var haveMeta, haveVocab, haveVectors bool
	var vecSize int64
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.NewFormatError(f.path, -1, "reading archive: %v", err)
		}
		switch hdr.Name {
		case metaMember:
			if err := f.readMeta(tr); err != nil {
				return err
			}
			haveMeta = true
		case vocabMember:
			if err := f.readVocab(tr); err != nil {
				return err
			}
			haveVocab = true
		case vectorsMember:
			f.vecOffset = cr.n
			vecSize = hdr.Size
			haveVectors = true
		}
	}
	for member, ok := range map[string]bool{
		metaMember:    haveMeta,
		vocabMember:   haveVocab,
		vectorsMember: haveVectors,
	} {
		if !ok {
			return core.NewFormatError(f.path, -1, "missing archive member %q", member)
		}
	}

	f.rowBytes = int64(f.meta.VectorSize) * int64(f.meta.DType.Size())
	if len(f.words) != f.meta.VocabSize {
		return &core.FileFormatError{
			Path:     f.path,
			Entry:    -1,
			Expected: f.meta.VocabSize,
			Actual:   len(f.words),
			Reason:   "vocabulary does not match the declared vocab size",
		}
	}
	if want := int64(f.meta.VocabSize) * f.rowBytes; vecSize != want {
		return core.NewFormatError(f.path, -1,
			"vector block is %d bytes, expected %d (%d vectors of %d bytes)",
			vecSize, want, f.meta.VocabSize, f.rowBytes)
	}
	return nil
}

func (f *File) readMeta(r io.Reader) error {
	var meta metadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return core.NewFormatError(f.path, -1, "malformed %s: %v", metaMember, err)
	}
	if meta.FormatVersion != FormatVersion {
		return core.NewFormatError(f.path, -1, "unsupported format version %d", meta.FormatVersion)
	}
	if meta.VocabSize < 0 || meta.VectorSize < 1 || !meta.DType.IsValid() {
		return core.NewFormatError(f.path, -1, "invalid metadata %+v", meta)
	}
	f.meta = meta
	return nil
}

func (f *File) readVocab(r io.Reader) error {
	f.words = make([]string, 0, f.meta.VocabSize)
	f.positions = make(map[string]int, f.meta.VocabSize)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		word := sc.Text()
		if _, dup := f.positions[word]; dup {
			return core.NewFormatError(f.path, len(f.words), "duplicate word %q in vocabulary", word)
		}
		f.positions[word] = len(f.words)
		f.words = append(f.words, word)
	}
	if err := sc.Err(); err != nil {
		return core.NewFormatError(f.path, -1, "reading %s: %v", vocabMember, err)
	}
	return nil
}

func (f *File) Path() string    { return f.path }
func (f *File) VocabSize() int  { return f.meta.VocabSize }
func (f *File) VectorSize() int { return f.meta.VectorSize }

// DType returns the element type of the stored vectors.
func (f *File) DType() dtype.DType { return f.meta.DType }

// Words returns the vocabulary in file order. The returned slice is shared;
// callers must not modify it.
func (f *File) Words() []string { return f.words }

// Contains reports whether word is in the vocabulary.
func (f *File) Contains(word string) bool {
	_, ok := f.positions[word]
	return ok
}

// Position implements core.RandomAccessor.
func (f *File) Position(word string) (int, bool) {
	pos, ok := f.positions[word]
	return pos, ok
}

// VectorAt reads and decodes the vector of the word at row pos. Reads use
// ReadAt on the underlying file, so concurrent calls are safe.
func (f *File) VectorAt(pos int) ([]float64, error) {
	if f.closed {
		return nil, core.ErrClosed
	}
	if pos < 0 || pos >= f.meta.VocabSize {
		return nil, fmt.Errorf("vvm: row %d out of range [0, %d)", pos, f.meta.VocabSize)
	}
	buf := make([]byte, f.rowBytes)
	if _, err := f.archive.ReadAt(buf, f.vecOffset+int64(pos)*f.rowBytes); err != nil {
		return nil, fmt.Errorf("vvm: reading row %d of %s: %w", pos, f.path, err)
	}
	return dtype.Decode(f.meta.DType, buf, f.meta.VectorSize)
}

// Vector returns the vector of word, or false if word is not in the
// vocabulary.
func (f *File) Vector(word string) ([]float64, bool, error) {
	pos, ok := f.positions[word]
	if !ok {
		return nil, false, nil
	}
	vec, err := f.VectorAt(pos)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Reader returns a cursor iterating entries in file order.
func (f *File) Reader() (core.Reader, error) {
	if f.closed {
		return nil, core.ErrClosed
	}
	r := &reader{
		cursor: core.NewCursor(f.path, f.meta.VocabSize),
		file:   f,
	}
	f.cursors.Track(r)
	return r, nil
}

// Loader returns a random-access loader. Lookups touch only the requested
// rows, read in file order.
func (f *File) Loader(words []string) (core.Loader, error) {
	if f.closed {
		return nil, core.ErrClosed
	}
	l := core.NewRandomAccessLoader(f, words, f.out, nil)
	f.cursors.Track(l)
	return l, nil
}

// Close releases the container, any outstanding readers and loaders, and
// the temporary copy extracted from a compressed container.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := f.cursors.CloseAll()
	if cerr := f.archive.Close(); cerr != nil && err == nil {
		err = cerr
	}
	f.cleanup()
	return err
}

type reader struct {
	cursor core.Cursor
	file   *File
	closed bool
}

func (r *reader) Next() (core.WordVector, error) {
	if r.closed || r.file.closed {
		return core.WordVector{}, core.ErrClosed
	}
	if r.cursor.Done() {
		return core.WordVector{}, io.EOF
	}
	if r.cursor.AtDeclaredEnd() {
		return core.WordVector{}, r.cursor.Finish()
	}
	pos := r.cursor.Read()
	vec, err := r.file.VectorAt(pos)
	if err != nil {
		return core.WordVector{}, err
	}
	r.cursor.Advance()
	return core.WordVector{Word: r.file.words[pos], Vector: vec}, nil
}

func (r *reader) Read() int { return r.cursor.Read() }

func (r *reader) Close() error {
	r.closed = true
	return nil
}
