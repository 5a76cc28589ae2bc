// Package word2vec implements the word2vec binary embedding format: an ASCII
// "<vocabSize> <vectorSize>" header line followed by entries of the form
// "<word> <raw vector bytes>\n".
//
// The element type of the raw bytes is not recorded in the file. It defaults
// to little-endian float32, which is what word2vec and fastText write; open
// the file with an explicit DType to read anything else.
package word2vec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/janluke/embfile/compression"
	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/dtype"
)

// FormatID is the registry identifier of this format.
const FormatID = "bin"

// Descriptor describes this format for registration.
var Descriptor = core.Format{
	ID:         FormatID,
	Extensions: []string{".bin"},
	Open:       Open,
	Create:     Create,
}

// File is an open word2vec binary embedding file.
type File struct {
	path       string
	vocabSize  int
	vectorSize int
	dt         dtype.DType
	out        dtype.DType
	logger     *core.Logger
	cursors    core.CloserSet
	closed     bool
}

// Open opens a word2vec binary file and parses its header.
func Open(path string, opts *core.OpenOptions) (core.EmbFile, error) {
	if opts == nil {
		opts = &core.OpenOptions{}
	}
	dt := opts.DType
	if !dt.IsValid() {
		dt = dtype.LittleEndianFloat32
	}

	f := &File{
		path:   path,
		dt:     dt,
		out:    opts.OutDType,
		logger: opts.Log().WithFormat(FormatID).WithPath(path),
	}

	src, err := compression.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	f.vocabSize, f.vectorSize, err = readHeader(path, bufio.NewReader(src))
	if err != nil {
		return nil, err
	}
	f.logger.Debug("opened word2vec file",
		"vocab_size", f.vocabSize, "vector_size", f.vectorSize, "dtype", f.dt.String())
	return f, nil
}

func readHeader(path string, br *bufio.Reader) (vocabSize, vectorSize int, err error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return 0, 0, core.NewFormatError(path, -1, "unreadable header: %v", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, core.NewFormatError(path, -1, "malformed header %q", strings.TrimRight(line, "\n"))
	}
	vocabSize, err1 := strconv.Atoi(fields[0])
	vectorSize, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || vocabSize < 1 || vectorSize < 1 {
		return 0, 0, core.NewFormatError(path, -1, "malformed header %q", strings.TrimRight(line, "\n"))
	}
	return vocabSize, vectorSize, nil
}

func (f *File) Path() string    { return f.path }
func (f *File) VocabSize() int  { return f.vocabSize }
func (f *File) VectorSize() int { return f.vectorSize }

// DType returns the element type of the stored vectors.
func (f *File) DType() dtype.DType { return f.dt }

// Reader returns a new cursor over the file, positioned at the first entry.
func (f *File) Reader() (core.Reader, error) {
	if f.closed {
		return nil, core.ErrClosed
	}
	src, err := compression.OpenRead(f.path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(src, 1<<16)
	if _, _, err := readHeader(f.path, br); err != nil {
		src.Close()
		return nil, err
	}
	r := &reader{
		cursor: core.NewCursor(f.path, f.vocabSize),
		path:   f.path,
		src:    src,
		br:     br,
		dt:     f.dt,
		buf:    make([]byte, f.vectorSize*f.dt.Size()),
	}
	f.cursors.Track(r)
	return r, nil
}

// Loader returns a sequential loader scanning the file once.
func (f *File) Loader(words []string) (core.Loader, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	l := core.NewSequentialLoader(r, words, f.out)
	f.cursors.Track(l)
	return l, nil
}

// Close releases the file and every reader/loader created from it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.cursors.CloseAll()
}

type reader struct {
	cursor core.Cursor
	path   string
	src    io.ReadCloser
	br     *bufio.Reader
	dt     dtype.DType
	buf    []byte
	closed bool
}

func (r *reader) Next() (core.WordVector, error) {
	if r.closed {
		return core.WordVector{}, core.ErrClosed
	}
	if r.cursor.Done() {
		return core.WordVector{}, io.EOF
	}
	if r.cursor.AtDeclaredEnd() {
		return core.WordVector{}, r.cursor.Finish()
	}

	word, err := r.readWord()
	if err == io.EOF {
		return core.WordVector{}, r.cursor.PhysicalEOF()
	}
	if err != nil {
		return core.WordVector{}, err
	}

	if _, err := io.ReadFull(r.br, r.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return core.WordVector{}, core.NewFormatError(r.path, r.cursor.Read(),
				"vector bytes for word %q are truncated", word)
		}
		return core.WordVector{}, err
	}
	vec, err := dtype.Decode(r.dt, r.buf, len(r.buf)/r.dt.Size())
	if err != nil {
		return core.WordVector{}, err
	}
	r.cursor.Advance()
	return core.WordVector{Word: word, Vector: vec}, nil
}

// readWord reads the next word up to the separating space. Some writers
// terminate entries with a newline, so leading newline bytes are skipped.
func (r *reader) readWord() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return "", core.NewFormatError(r.path, r.cursor.Read(),
					"file ends in the middle of a word")
			}
			return "", err
		}
		switch b {
		case ' ':
			if sb.Len() == 0 {
				return "", core.NewFormatError(r.path, r.cursor.Read(), "empty word")
			}
			return sb.String(), nil
		case '\n', '\r':
			if sb.Len() > 0 {
				return "", core.NewFormatError(r.path, r.cursor.Read(),
					"unexpected newline inside word %q", sb.String())
			}
			// Entry separator written by some tools. Skip it.
		default:
			sb.WriteByte(b)
		}
	}
}

func (r *reader) Read() int { return r.cursor.Read() }

func (r *reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

// Create writes a word2vec binary file. The entry count must be known up
// front (CreateOptions.VocabSize) because the header precedes the data.
// Vectors are encoded with CreateOptions.DType, little-endian float32 when
// unset.
func Create(path string, pairs core.PairSeq, opts *core.CreateOptions) error {
	if opts == nil {
		opts = &core.CreateOptions{}
	}
	if opts.VocabSize <= 0 {
		return fmt.Errorf("word2vec: the entry count cannot be inferred from a pair stream; provide it explicitly")
	}
	if err := core.EnsureTarget(path, opts.Overwrite); err != nil {
		return err
	}

	dt := opts.DType
	if !dt.IsValid() {
		dt = dtype.LittleEndianFloat32
	}

	out, err := compression.OpenWrite(path, opts.Compression)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	vectorSize := -1
	var buf []byte
	i := 0
	for wv, err := range pairs {
		if err != nil {
			return err
		}
		if strings.ContainsAny(wv.Word, " \r\n") {
			return fmt.Errorf("word2vec: word %d contains a space or line ending: %q", i, wv.Word)
		}
		if vectorSize < 0 {
			vectorSize = len(wv.Vector)
			fmt.Fprintf(w, "%d %d\n", opts.VocabSize, vectorSize)
		}
		if err := core.CheckVectorSize(i, wv.Vector, vectorSize); err != nil {
			return err
		}

		if _, err := w.WriteString(wv.Word); err != nil {
			return err
		}
		if err := w.WriteByte(' '); err != nil {
			return err
		}
		buf = dtype.Append(dt, buf[:0], wv.Vector)
		if _, err := w.Write(buf); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		i++
	}
	if vectorSize < 0 {
		return fmt.Errorf("word2vec: no pairs provided")
	}
	if err := core.CheckVocabSize(opts.VocabSize, i); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	opts.Log().WithFormat(FormatID).WithPath(path).Debug("file created",
		"entries", i, "vector_size", vectorSize)
	return nil
}
