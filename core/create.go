package core

import (
	"fmt"
	"os"
)

// EnsureTarget prepares the creation target at path: it fails if a file
// already exists there, unless overwrite is set, in which case the existing
// file is removed first.
func EnsureTarget(path string, overwrite bool) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("file already exists: %s: %w", path, os.ErrExist)
		}
		return os.Remove(path)
	case os.IsNotExist(err):
		return nil
	default:
		return err
	}
}

// CheckVectorSize verifies that the vector of the entry at index i has the
// size fixed by the first entry.
func CheckVectorSize(i int, vec []float64, vectorSize int) error {
	if len(vec) != vectorSize {
		return fmt.Errorf("inconsistent vector size: the first vector has %d components but entry %d has %d",
			vectorSize, i, len(vec))
	}
	return nil
}

// CheckVocabSize verifies that a declared entry count matches the actual
// number of written pairs.
func CheckVocabSize(declared, actual int) error {
	if declared > 0 && declared != actual {
		return fmt.Errorf("declared vocab size is %d but %d pairs were provided", declared, actual)
	}
	return nil
}
