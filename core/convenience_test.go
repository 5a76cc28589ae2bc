package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janluke/embfile/dtype"
)

// memFile is an in-memory EmbFile used to exercise the format-agnostic
// operations without touching a concrete format.
type memFile struct {
	entries []WordVector
	closed  bool
}

func (f *memFile) Path() string       { return "mem" }
func (f *memFile) VocabSize() int     { return len(f.entries) }
func (f *memFile) VectorSize() int    { return len(f.entries[0].Vector) }
func (f *memFile) DType() dtype.DType { return dtype.LittleEndianFloat64 }
func (f *memFile) Close() error       { f.closed = true; return nil }

func (f *memFile) Reader() (Reader, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return newMemReader(f.entries), nil
}

func (f *memFile) Loader(words []string) (Loader, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	return NewSequentialLoader(r, words, dtype.DType{}), nil
}

func TestFind_Partition(t *testing.T) {
	f := &memFile{entries: testEntries}

	res, err := Find(f, []string{"fox", "wolf", "brown", "bear"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float64{
		"brown": {1, 1},
		"fox":   {2, 2},
	}, res.Vectors)
	require.Equal(t, []string{"bear", "wolf"}, res.MissingWords)
}

func TestLoad_StrictFailure(t *testing.T) {
	f := &memFile{entries: testEntries}

	_, err := Load(f, []string{"fox", "wolf"})
	var mwe *MissingWordError
	require.ErrorAs(t, err, &mwe)
	require.Equal(t, []string{"wolf"}, mwe.Words)

	got, err := Load(f, []string{"fox"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float64{"fox": {2, 2}}, got)
}

func TestToListAndToDict(t *testing.T) {
	f := &memFile{entries: testEntries}

	list, err := ToList(f)
	require.NoError(t, err)
	require.Equal(t, testEntries, list)

	dict, err := ToDict(f)
	require.NoError(t, err)
	require.Len(t, dict, len(testEntries))
	require.Equal(t, []float64{0, 1}, dict["quick"])
}

func TestWordsAndFilter(t *testing.T) {
	f := &memFile{entries: testEntries}

	words, err := Words(f)
	require.NoError(t, err)
	require.Equal(t, []string{"the", "quick", "brown", "fox", "jumps"}, words)

	short, err := Filter(f, func(w string) bool { return len(w) == 3 })
	require.NoError(t, err)
	require.Equal(t, []WordVector{
		{Word: "the", Vector: []float64{1, 0}},
		{Word: "fox", Vector: []float64{2, 2}},
	}, short)
}

func TestSaveVocab(t *testing.T) {
	f := &memFile{entries: testEntries}
	path := filepath.Join(t.TempDir(), "vocab.txt")

	require.NoError(t, SaveVocab(f, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "the\nquick\nbrown\nfox\njumps\n", string(data))
}

func TestPairsFromMap_Deterministic(t *testing.T) {
	seq := PairsFromMap(map[string][]float64{
		"b": {2}, "a": {1}, "c": {3},
	})

	var words []string
	for wv, err := range seq {
		require.NoError(t, err)
		words = append(words, wv.Word)
	}
	require.Equal(t, []string{"a", "b", "c"}, words)
}

func TestFilePairs(t *testing.T) {
	f := &memFile{entries: testEntries}

	var n int
	for wv, err := range FilePairs(f) {
		require.NoError(t, err)
		require.Equal(t, testEntries[n], wv)
		n++
	}
	require.Equal(t, len(testEntries), n)
}
