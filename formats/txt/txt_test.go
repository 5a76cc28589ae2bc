package txt

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/dtype"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readAll(t *testing.T, f core.EmbFile) []core.WordVector {
	t.Helper()
	r, err := f.Reader()
	require.NoError(t, err)
	defer r.Close()

	var out []core.WordVector
	for {
		wv, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, wv)
	}
}

func TestOpen_WithHeader(t *testing.T) {
	path := writeFile(t, "vecs.txt", "2 3\nhello 0.1 0.2 0.3\nworld 1 2 3\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, 2, f.VocabSize())
	require.Equal(t, 3, f.VectorSize())
	require.Equal(t, dtype.LittleEndianFloat64, f.DType())

	entries := readAll(t, f)
	require.Len(t, entries, 2)
	require.Equal(t, "hello", entries[0].Word)
	require.Equal(t, []float64{0.1, 0.2, 0.3}, entries[0].Vector)
	require.Equal(t, "world", entries[1].Word)
}

func TestOpen_Headerless(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 0.1 0.2 0.3\nworld 1 2 3\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, -1, f.VocabSize())
	require.Equal(t, 3, f.VectorSize())

	entries := readAll(t, f)
	require.Len(t, entries, 2)
	require.Equal(t, "hello", entries[0].Word)
}

func TestOpen_HeaderlessWithDeclaredSize(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 1 2\nworld 3 4\n")

	f, err := Open(path, &core.OpenOptions{VocabSize: 2})
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, 2, f.VocabSize())
	require.Len(t, readAll(t, f), 2)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeFile(t, "vecs.txt", "")

	_, err := Open(path, nil)
	var ffe *core.FileFormatError
	require.ErrorAs(t, err, &ffe)
}

func TestReader_Truncated(t *testing.T) {
	path := writeFile(t, "vecs.txt", "3 2\nhello 1 2\nworld 3 4\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	r, err := f.Reader()
	require.NoError(t, err)
	defer r.Close()

	for range 2 {
		_, err = r.Next()
		require.NoError(t, err)
	}
	_, err = r.Next()
	var ffe *core.FileFormatError
	require.ErrorAs(t, err, &ffe)
	require.Equal(t, 3, ffe.Expected)
	require.Equal(t, 2, ffe.Actual)
}

func TestReader_WrongComponentCount(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 1 2 3\nworld 4 5\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	r, err := f.Reader()
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	var ffe *core.FileFormatError
	require.ErrorAs(t, err, &ffe)
	require.Equal(t, 1, ffe.Entry)
}

func TestReader_InvalidComponent(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 1 x 3\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	r, err := f.Reader()
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	var ffe *core.FileFormatError
	require.ErrorAs(t, err, &ffe)
}

func TestCreate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecs.txt")
	pairs := core.Pairs(
		core.WordVector{Word: "hello", Vector: []float64{0.5, -1.25}},
		core.WordVector{Word: "world", Vector: []float64{2, 3}},
	)
	err := Create(path, pairs, &core.CreateOptions{VocabSize: 2})
	require.NoError(t, err)

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, 2, f.VocabSize())
	require.Equal(t, 2, f.VectorSize())
	entries := readAll(t, f)
	require.Equal(t, []float64{0.5, -1.25}, entries[0].Vector)
	require.Equal(t, []float64{2, 3}, entries[1].Vector)
}

func TestCreate_CompressedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecs.txt.gz")
	pairs := core.Pairs(
		core.WordVector{Word: "hello", Vector: []float64{1, 2}},
	)
	err := Create(path, pairs, &core.CreateOptions{VocabSize: 1, Compression: "gzip"})
	require.NoError(t, err)

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	entries := readAll(t, f)
	require.Len(t, entries, 1)
	require.Equal(t, "hello", entries[0].Word)
}

func TestCreate_RequiresVocabSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecs.txt")
	err := Create(path, core.Pairs(core.WordVector{Word: "w", Vector: []float64{1}}), nil)
	require.Error(t, err)
}

func TestCreate_VocabSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecs.txt")
	pairs := core.Pairs(core.WordVector{Word: "w", Vector: []float64{1}})
	err := Create(path, pairs, &core.CreateOptions{VocabSize: 2})
	require.Error(t, err)
}

func TestCreate_RejectsUnstorableWords(t *testing.T) {
	// Lines are space- and newline-delimited, and a trailing '\r' would be
	// stripped as a line ending on read, altering the word.
	for _, word := range []string{"two words", "word\n", "word\r"} {
		path := filepath.Join(t.TempDir(), "vecs.txt")
		pairs := core.Pairs(core.WordVector{Word: word, Vector: []float64{1}})
		err := Create(path, pairs, &core.CreateOptions{VocabSize: 1})
		require.Error(t, err, "word %q", word)
	}
}

func TestCreate_RefusesExistingTarget(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 1\n")
	pairs := core.Pairs(core.WordVector{Word: "w", Vector: []float64{1}})

	err := Create(path, pairs, &core.CreateOptions{VocabSize: 1})
	require.ErrorIs(t, err, os.ErrExist)

	err = Create(path, pairs, &core.CreateOptions{VocabSize: 1, Overwrite: true})
	require.NoError(t, err)
}

func TestOpen_DebugLogging(t *testing.T) {
	path := writeFile(t, "vecs.txt", "2 2\nhello 1 2\nworld 3 4\n")

	var buf bytes.Buffer
	logger := core.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := Open(path, &core.OpenOptions{Logger: logger})
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, buf.String(), "opened text file")
	require.Contains(t, buf.String(), "vocab_size=2")
	require.Contains(t, buf.String(), "format=txt")
}

func TestLoader(t *testing.T) {
	path := writeFile(t, "vecs.txt", "hello 1 2\nworld 3 4\nagain 5 6\n")

	f, err := Open(path, nil)
	require.NoError(t, err)
	defer f.Close()

	l, err := f.Loader([]string{"again", "missing", "hello"})
	require.NoError(t, err)
	defer l.Close()

	got := map[string][]float64{}
	for {
		wv, err := l.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got[wv.Word] = wv.Vector
	}
	require.Equal(t, map[string][]float64{
		"hello": {1, 2},
		"again": {5, 6},
	}, got)

	missing, err := l.MissingWords()
	require.NoError(t, err)
	require.Equal(t, []string{"missing"}, missing)
}
