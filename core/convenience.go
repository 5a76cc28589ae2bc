package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Load returns a word->vector map for the requested words, failing with a
// MissingWordError if any of them is absent from the file.
func Load(f EmbFile, words []string) (map[string][]float64, error) {
	result, err := Find(f, words)
	if err != nil {
		return nil, err
	}
	if len(result.MissingWords) > 0 {
		return nil, &MissingWordError{Words: result.MissingWords}
	}
	return result.Vectors, nil
}

// FindResult is the outcome of a Find: the vectors of the words that were
// found and the sorted set of words that were not. The two are disjoint and
// together cover exactly the requested words.
type FindResult struct {
	Vectors      map[string][]float64
	MissingWords []string
}

// Find looks up the requested words, never failing on missing ones: missing
// words are data, not errors.
func Find(f EmbFile, words []string) (*FindResult, error) {
	loader, err := f.Loader(words)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	vectors := make(map[string][]float64)
	for {
		wv, err := loader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		vectors[wv.Word] = wv.Vector
	}

	missing, err := loader.MissingWords()
	if err != nil {
		return nil, err
	}
	return &FindResult{Vectors: vectors, MissingWords: missing}, nil
}

// ToDict materializes the entire file into a word->vector map. Memory grows
// with the vocabulary size; prefer a Loader for large files.
func ToDict(f EmbFile) (map[string][]float64, error) {
	out := make(map[string][]float64, materializeHint(f))
	err := eachEntry(f, func(wv WordVector) error {
		out[wv.Word] = wv.Vector
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToList materializes the entire file into a slice of pairs, in file order.
// Memory grows with the vocabulary size.
func ToList(f EmbFile) ([]WordVector, error) {
	out := make([]WordVector, 0, materializeHint(f))
	err := eachEntry(f, func(wv WordVector) error {
		out = append(out, wv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Words returns all words in the file, in file order.
func Words(f EmbFile) ([]string, error) {
	out := make([]string, 0, materializeHint(f))
	err := eachEntry(f, func(wv WordVector) error {
		out = append(out, wv.Word)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Filter returns the pairs whose word satisfies pred, in file order.
func Filter(f EmbFile, pred func(word string) bool) ([]WordVector, error) {
	var out []WordVector
	err := eachEntry(f, func(wv WordVector) error {
		if pred(wv.Word) {
			out = append(out, wv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveVocab writes the file's vocabulary to a text file, one word per line.
func SaveVocab(f EmbFile, path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(out)
	werr := eachEntry(f, func(wv WordVector) error {
		if _, err := w.WriteString(wv.Word); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if werr != nil {
		return fmt.Errorf("saving vocabulary to %s: %w", path, werr)
	}
	return w.Flush()
}

func eachEntry(f EmbFile, fn func(WordVector) error) error {
	r, err := f.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		wv, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(wv); err != nil {
			return err
		}
	}
}

func materializeHint(f EmbFile) int {
	if n := f.VocabSize(); n > 0 {
		return n
	}
	return 0
}
