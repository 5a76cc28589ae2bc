// Package txt implements the plain-text embedding format used by GloVe and
// fastText: one entry per line, the word followed by its space-separated
// vector components.
//
// Files may start with an automatically detected header line declaring
// "<vocabSize> <vectorSize>". Without a header the vector size is taken from
// the first line and the vocabulary size stays unknown unless the caller
// declares it.
package txt

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
const FormatID = "txt"

// DefaultPrecision is the number of decimals written per component.
const DefaultPrecision = 5

// Descriptor describes this format for registration.
var Descriptor = core.Format{
	ID:         FormatID,
	Extensions: []string{".txt", ".vec"},
	Open:       Open,
	Create:     Create,
}

// File is an open text-format embedding file.
type File struct {
	path       string
	vocabSize  int // -1 when unknown
	vectorSize int
	hasHeader  bool
	out        dtype.DType
	logger     *core.Logger
	cursors    core.CloserSet
	closed     bool
}

// Open opens a text embedding file, probing the first line for a header.
// Compressed files (by extension) are decompressed transparently; note that
// every reader then decompresses the stream independently.
func Open(path string, opts *core.OpenOptions) (core.EmbFile, error) {
	if opts == nil {
		opts = &core.OpenOptions{}
	}

	f := &File{
		path:      path,
		vocabSize: -1,
		out:       opts.OutDType,
		logger:    opts.Log().WithFormat(FormatID).WithPath(path),
	}
	if opts.VocabSize > 0 {
		f.vocabSize = opts.VocabSize
	}

	src, err := compression.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	firstLine, err := readLine(bufio.NewReader(src))
	if err == io.EOF {
		return nil, core.NewFormatError(path, -1, "empty file")
	}
	if err != nil {
		return nil, err
	}

	if vocabSize, vectorSize, ok := parseHeader(firstLine); ok {
		f.hasHeader = true
		f.vocabSize = vocabSize
		f.vectorSize = vectorSize
	} else {
		f.vectorSize = len(strings.Fields(firstLine)) - 1
		if f.vectorSize < 1 {
			return nil, core.NewFormatError(path, 0, "first line holds no vector components: %q", firstLine)
		}
	}
	f.logger.Debug("opened text file",
		"header", f.hasHeader, "vocab_size", f.vocabSize, "vector_size", f.vectorSize)
	return f, nil
}

// parseHeader reports whether line is a "<vocabSize> <vectorSize>" header.
func parseHeader(line string) (vocabSize, vectorSize int, ok bool) {
	fields := strings.Split(line, " ")
	if len(fields) != 2 {
		return 0, 0, false
	}
	vocabSize, err1 := strconv.Atoi(fields[0])
	vectorSize, err2 := strconv.Atoi(strings.TrimRight(fields[1], "\r"))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return vocabSize, vectorSize, true
}

func (f *File) Path() string    { return f.path }
func (f *File) VocabSize() int  { return f.vocabSize }
func (f *File) VectorSize() int { return f.vectorSize }

// DType returns the element type entries decode to. Text stores decimal
// numbers, so vectors are parsed at full float64 precision.
func (f *File) DType() dtype.DType { return dtype.LittleEndianFloat64 }

// Reader returns a new cursor over the file. Each reader opens and owns its
// own stream.
func (f *File) Reader() (core.Reader, error) {
	if f.closed {
		return nil, core.ErrClosed
	}
	src, err := compression.OpenRead(f.path)
	if err != nil {
		return nil, err
	}
	r := &reader{
		cursor:     core.NewCursor(f.path, f.vocabSize),
		path:       f.path,
		src:        src,
		br:         bufio.NewReaderSize(src, 1<<16),
		vectorSize: f.vectorSize,
	}
	if f.hasHeader {
		if _, err := readLine(r.br); err != nil {
			src.Close()
			return nil, core.NewFormatError(f.path, -1, "unreadable header: %v", err)
		}
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
	cursor     core.Cursor
	path       string
	src        io.ReadCloser
	br         *bufio.Reader
	vectorSize int
	closed     bool
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

	line, err := readLine(r.br)
	if err == io.EOF {
		return core.WordVector{}, r.cursor.PhysicalEOF()
	}
	if err != nil {
		return core.WordVector{}, err
	}

	wv, err := r.parseLine(line)
	if err != nil {
		return core.WordVector{}, err
	}
	r.cursor.Advance()
	return wv, nil
}

func (r *reader) parseLine(line string) (core.WordVector, error) {
	sep := strings.IndexByte(line, ' ')
	if sep < 0 {
		return core.WordVector{}, core.NewFormatError(r.path, r.cursor.Read(),
			"no space found in line %q", line)
	}
	word := line[:sep]

	fields := strings.Fields(line[sep+1:])
	if len(fields) != r.vectorSize {
		return core.WordVector{}, &core.FileFormatError{
			Path:     r.path,
			Entry:    r.cursor.Read(),
			Expected: r.vectorSize,
			Actual:   len(fields),
			Reason:   "wrong number of vector components",
		}
	}

	vec := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return core.WordVector{}, core.NewFormatError(r.path, r.cursor.Read(),
				"invalid vector component %q", field)
		}
		vec[i] = v
	}
	return core.WordVector{Word: word, Vector: vec}, nil
}

func (r *reader) Read() int { return r.cursor.Read() }

func (r *reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

// readLine returns the next line without its trailing newline. io.EOF is
// only returned when no bytes remain (a last line without a newline is still
// a line). Blank trailing lines are skipped.
func readLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err == io.EOF {
			if line == "" {
				return "", io.EOF
			}
			return line, nil
		}
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// Create writes a text embedding file. The entry count must be known up
// front (CreateOptions.VocabSize) because the header precedes the data.
func Create(path string, pairs core.PairSeq, opts *core.CreateOptions) error {
	if opts == nil {
		opts = &core.CreateOptions{}
	}
	if opts.VocabSize <= 0 {
		return fmt.Errorf("txt: the entry count cannot be inferred from a pair stream; provide it explicitly")
	}
	if err := core.EnsureTarget(path, opts.Overwrite); err != nil {
		return err
	}

	precision := opts.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	out, err := compression.OpenWrite(path, opts.Compression)
	if err != nil {
		return err
	}
	defer out.Close()

	// The vector size is only known once the first pair arrives, so the
	// header is emitted lazily from inside the loop.
	w := bufio.NewWriter(out)
	vectorSize := -1
	i := 0
	for wv, err := range pairs {
		if err != nil {
			return err
		}
		if strings.ContainsAny(wv.Word, " \r\n") {
			return fmt.Errorf("txt: word %d contains a space or line ending: %q", i, wv.Word)
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
		for _, v := range wv.Vector {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
			if _, err := w.WriteString(strconv.FormatFloat(v, 'f', precision, 64)); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		i++
	}
	if vectorSize < 0 {
		return fmt.Errorf("txt: no pairs provided")
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
