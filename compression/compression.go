// Package compression provides the byte-stream filters embedding files may
// be wrapped in.
//
// A Codec is identified by a short algorithm tag ("gzip", "zstd", "lz4") and
// by the file extensions it is inferred from. The core treats compression as
// a decorator around the raw byte stream: formats read and write through
// OpenRead/OpenWrite and never care whether a filter is present.
//
// Per the library's execution model, codecs are configured for synchronous
// single-threaded operation (no background compression goroutines).
package compression

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is a streaming (de)compression algorithm.
type Codec interface {
	// Tag is the canonical algorithm tag.
	Tag() string

	// Extensions lists the file extensions (with leading dot) the codec is
	// inferred from.
	Extensions() []string

	// NewReader decorates r with decompression.
	NewReader(r io.Reader) (io.ReadCloser, error)

	// NewWriter decorates w with compression. Closing the returned writer
	// flushes and finalizes the compressed stream but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

type gzipCodec struct{}

func (gzipCodec) Tag() string          { return "gzip" }
func (gzipCodec) Extensions() []string { return []string{".gz", ".gzip"} }

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

type zstdCodec struct{}

func (zstdCodec) Tag() string          { return "zstd" }
func (zstdCodec) Extensions() []string { return []string{".zst", ".zstd"} }

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
}

type lz4Codec struct{}

func (lz4Codec) Tag() string          { return "lz4" }
func (lz4Codec) Extensions() []string { return []string{".lz4"} }

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (lz4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

var builtin = []Codec{gzipCodec{}, zstdCodec{}, lz4Codec{}}

var aliases = map[string]string{
	"gz":   "gzip",
	"gzip": "gzip",
	"zst":  "zstd",
	"zstd": "zstd",
	"lz4":  "lz4",
}

// ByTag returns a codec by its tag or a known alias ("gz" for "gzip").
func ByTag(tag string) (Codec, bool) {
	canonical, ok := aliases[strings.ToLower(tag)]
	if !ok {
		return nil, false
	}
	for _, c := range builtin {
		if c.Tag() == canonical {
			return c, true
		}
	}
	return nil, false
}

// ByExtension returns the codec associated with a file extension
// (leading dot included), if any.
func ByExtension(ext string) (Codec, bool) {
	ext = strings.ToLower(ext)
	for _, c := range builtin {
		for _, e := range c.Extensions() {
			if e == ext {
				return c, true
			}
		}
	}
	return nil, false
}

// Tags returns the canonical tags of all built-in codecs, sorted.
func Tags() []string {
	tags := make([]string, 0, len(builtin))
	for _, c := range builtin {
		tags = append(tags, c.Tag())
	}
	sort.Strings(tags)
	return tags
}

// StripExtension removes a trailing compression extension from path, if
// present: "vectors.txt.gz" becomes "vectors.txt".
func StripExtension(path string) string {
	if _, ok := ByExtension(filepath.Ext(path)); ok {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenRead opens the file at path for reading, decorating it with the codec
// inferred from its extension. Plain files are opened as-is.
func OpenRead(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	codec, ok := ByExtension(filepath.Ext(path))
	if !ok {
		return f, nil
	}
	dec, err := codec.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s compressed stream %s: %w", codec.Tag(), path, err)
	}
	return &readCloser{Reader: dec, closers: []io.Closer{dec, f}}, nil
}

// OpenWrite creates the file at path for writing through the codec with the
// given tag. An empty tag writes the file uncompressed. Closing the returned
// writer finalizes the compressed stream and closes the file.
func OpenWrite(path, tag string) (io.WriteCloser, error) {
	var codec Codec
	if tag != "" {
		var ok bool
		codec, ok = ByTag(tag)
		if !ok {
			return nil, fmt.Errorf("unknown compression %q; known compressions are: %s",
				tag, strings.Join(Tags(), ", "))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		return f, nil
	}
	enc, err := codec.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &writeCloser{Writer: enc, closers: []io.Closer{enc, f}}, nil
}

// ExtractTemp decompresses the file at path into a temporary file and
// returns its path. The caller is responsible for removing it. Formats whose
// access pattern needs seeking (VVM) use this when opening a compressed
// container, since the compressed stream itself is not seekable.
//
// The data is staged under a ".part" name and renamed once complete, so a
// crash never leaves a truncated file that looks finished.
func ExtractTemp(path string) (string, error) {
	src, err := OpenRead(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "embfile-*.part")
	if err != nil {
		return "", err
	}
	partPath := dst.Name()

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(partPath)
		return "", fmt.Errorf("decompressing %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(partPath)
		return "", err
	}

	finalPath := strings.TrimSuffix(partPath, ".part")
	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return "", err
	}
	return finalPath, nil
}
