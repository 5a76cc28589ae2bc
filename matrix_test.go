package embfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestFile(t *testing.T) EmbFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vecs.vvm")
	require.NoError(t, CreateFromMap(path, testVectors))
	f, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestBuildMatrix(t *testing.T) {
	f := openTestFile(t)

	out, err := BuildMatrix(f, []string{"hello", "ciao", "world", "mondo"},
		WithStartIndex(1), WithInitializer(Zeros()))
	require.NoError(t, err)

	require.Equal(t, [][]float64{
		{0, 0, 0}, // padding row
		{1, 2, 3}, // hello
		{0, 0, 0}, // ciao, missing
		{4, 5, 6}, // world
		{0, 0, 0}, // mondo, missing
	}, out.Matrix)
	require.Equal(t, map[string]int{"hello": 1, "ciao": 2, "world": 3, "mondo": 4}, out.Word2Index)
	require.Equal(t, []string{"ciao", "mondo"}, out.MissingWords)

	vec, ok := out.Vector("world")
	require.True(t, ok)
	require.Equal(t, []float64{4, 5, 6}, vec)
	_, ok = out.Vector("nope")
	require.False(t, ok)
}

func TestBuildMatrix_DuplicatesKeepFirstRow(t *testing.T) {
	f := openTestFile(t)

	out, err := BuildMatrix(f, []string{"hello", "world", "hello"}, WithInitializer(nil))
	require.NoError(t, err)
	require.Len(t, out.Matrix, 2)
	require.Equal(t, map[string]int{"hello": 0, "world": 1}, out.Word2Index)
}

func TestBuildMatrix_DefaultInitializerFitsFoundVectors(t *testing.T) {
	f := openTestFile(t)

	out, err := BuildMatrix(f, []string{"hello", "world", "!", "ciao"})
	require.NoError(t, err)

	// Components of the found vectors: column 0 is {1,4,7}, column 1 is
	// {2,5,8}, column 2 is {3,6,9}. A generated row must land within a few
	// standard deviations (3 here) of each column mean.
	row, ok := out.Vector("ciao")
	require.True(t, ok)
	require.Len(t, row, 3)
	for i, mean := range []float64{4, 5, 6} {
		require.InDelta(t, mean, row[i], 4*3)
	}
}

func TestBuildMatrix_NothingFoundLeavesZeros(t *testing.T) {
	f := openTestFile(t)

	out, err := BuildMatrix(f, []string{"ciao", "mondo"})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0, 0, 0}, {0, 0, 0}}, out.Matrix)
	require.Equal(t, []string{"ciao", "mondo"}, out.MissingWords)
}

func TestBuildMatrix_Validation(t *testing.T) {
	f := openTestFile(t)

	_, err := BuildMatrix(f, nil)
	require.Error(t, err)

	_, err = BuildMatrix(f, []string{"hello"}, WithStartIndex(-1))
	require.Error(t, err)
}

func TestBuildMatrixFromIndex(t *testing.T) {
	f := openTestFile(t)

	out, err := BuildMatrixFromIndex(f, map[string]int{"hello": 2, "world": 5}, WithInitializer(nil))
	require.NoError(t, err)

	require.Len(t, out.Matrix, 6)
	require.Equal(t, []float64{1, 2, 3}, out.Matrix[2])
	require.Equal(t, []float64{4, 5, 6}, out.Matrix[5])
	require.Equal(t, []float64{0, 0, 0}, out.Matrix[0])
}

func TestBuildMatrixFromIndex_RejectsSharedRow(t *testing.T) {
	f := openTestFile(t)

	_, err := BuildMatrixFromIndex(f, map[string]int{"hello": 1, "world": 1})
	require.Error(t, err)

	_, err = BuildMatrixFromIndex(f, map[string]int{"hello": -2})
	require.Error(t, err)
}

func TestNormalInitializer(t *testing.T) {
	in := NewNormalInitializer()

	_, err := in.Generate(2)
	require.Error(t, err)

	in.Fit([][]float64{{10, -10}, {10, -10}, {10, -10}})
	vec, err := in.Generate(2)
	require.NoError(t, err)
	// Zero deviation collapses the distribution onto the mean.
	require.Equal(t, []float64{10, -10}, vec)

	_, err = in.Generate(3)
	require.Error(t, err)
}

func TestFixedNormalInitializer(t *testing.T) {
	vec, err := Normal(100, 0.001).Generate(4)
	require.NoError(t, err)
	require.Len(t, vec, 4)
	for _, v := range vec {
		require.InDelta(t, 100, v, 1)
	}
}

func TestZerosInitializer(t *testing.T) {
	vec, err := Zeros().Generate(3)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0}, vec)
}
