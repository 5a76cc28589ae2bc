package embfile

import (
	"fmt"
	"io"
)

// BuildMatrixResult is returned by BuildMatrix and BuildMatrixFromIndex.
type BuildMatrixResult struct {
	// Matrix has one row per word; rows not assigned to any word, and rows
	// of missing words when no initializer ran, are zero.
	Matrix [][]float64

	// Word2Index maps each word to its row.
	Word2Index map[string]int

	// MissingWords lists the requested words not found in the file, sorted.
	MissingWords []string
}

// Vector returns the row of word, or false if word was not requested.
func (r *BuildMatrixResult) Vector(word string) ([]float64, bool) {
	idx, ok := r.Word2Index[word]
	if !ok {
		return nil, false
	}
	return r.Matrix[idx], true
}

type matrixConfig struct {
	startIndex  int
	initializer Initializer
	haveInit    bool
}

// MatrixOption configures BuildMatrix and BuildMatrixFromIndex.
type MatrixOption func(*matrixConfig)

// WithStartIndex assigns words to rows starting at index start instead of 0.
// Rows before it are left zero; index 0 is commonly reserved for padding.
func WithStartIndex(start int) MatrixOption {
	return func(cfg *matrixConfig) { cfg.startIndex = start }
}

// WithInitializer sets the generator for the rows of missing words. Nil
// leaves them zero. The default is NewNormalInitializer(), fit to the found
// vectors.
func WithInitializer(in Initializer) MatrixOption {
	return func(cfg *matrixConfig) {
		cfg.initializer = in
		cfg.haveInit = true
	}
}

// BuildMatrix builds an embedding matrix with one row per word, assigned to
// consecutive rows in the given order. Rows of words found in the file hold
// their vector; the remaining rows are generated by the initializer.
// Duplicated words keep their first position.
func BuildMatrix(f EmbFile, words []string, opts ...MatrixOption) (*BuildMatrixResult, error) {
	cfg := newMatrixConfig(opts)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty word list")
	}
	if cfg.startIndex < 0 {
		return nil, fmt.Errorf("negative start index: %d", cfg.startIndex)
	}

	word2index := make(map[string]int, len(words))
	next := cfg.startIndex
	for _, w := range words {
		if _, dup := word2index[w]; dup {
			continue
		}
		word2index[w] = next
		next++
	}
	return buildMatrix(f, word2index, next, cfg)
}

// BuildMatrixFromIndex builds an embedding matrix for an existing
// word-to-row assignment. The matrix has max(row)+1 rows; rows not assigned
// to any word are left zero.
func BuildMatrixFromIndex(f EmbFile, word2index map[string]int, opts ...MatrixOption) (*BuildMatrixResult, error) {
	cfg := newMatrixConfig(opts)
	if len(word2index) == 0 {
		return nil, fmt.Errorf("empty word index")
	}

	numRows := 0
	rows := make(map[int]string, len(word2index))
	for word, idx := range word2index {
		if idx < 0 {
			return nil, fmt.Errorf("word %q is mapped to negative row %d", word, idx)
		}
		if other, taken := rows[idx]; taken {
			return nil, fmt.Errorf("words %q and %q are mapped to the same row %d", other, word, idx)
		}
		rows[idx] = word
		if idx+1 > numRows {
			numRows = idx + 1
		}
	}
	return buildMatrix(f, word2index, numRows, cfg)
}

func newMatrixConfig(opts []MatrixOption) *matrixConfig {
	cfg := &matrixConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.haveInit {
		cfg.initializer = NewNormalInitializer()
	}
	return cfg
}

func buildMatrix(f EmbFile, word2index map[string]int, numRows int, cfg *matrixConfig) (*BuildMatrixResult, error) {
	vectorSize := f.VectorSize()
	matrix := make([][]float64, numRows)
	for i := range matrix {
		matrix[i] = make([]float64, vectorSize)
	}

	words := make([]string, 0, len(word2index))
	for w := range word2index {
		words = append(words, w)
	}
	loader, err := f.Loader(words)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	var found [][]float64
	for {
		wv, err := loader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := word2index[wv.Word]
		copy(matrix[row], wv.Vector)
		found = append(found, matrix[row])
	}
	missing, err := loader.MissingWords()
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 && cfg.initializer != nil {
		if fit, ok := cfg.initializer.(FitInitializer); ok {
			if len(found) == 0 {
				// Nothing to fit on. Leave the missing rows zero.
				return &BuildMatrixResult{Matrix: matrix, Word2Index: word2index, MissingWords: missing}, nil
			}
			fit.Fit(found)
		}
		for _, word := range missing {
			vec, err := cfg.initializer.Generate(vectorSize)
			if err != nil {
				return nil, err
			}
			copy(matrix[word2index[word]], vec)
		}
	}
	return &BuildMatrixResult{Matrix: matrix, Word2Index: word2index, MissingWords: missing}, nil
}
