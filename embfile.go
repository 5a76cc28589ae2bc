package embfile

import (
	"path/filepath"

	"github.com/janluke/embfile/compression"
	"github.com/janluke/embfile/core"
)

// Core types, re-exported so that common use of the package needs no other
// import.
type (
	// WordVector is a (word, vector) pair.
	WordVector = core.WordVector

	// EmbFile is an open embedding file of any format.
	EmbFile = core.EmbFile

	// Reader iterates the entries of a file in storage order.
	Reader = core.Reader

	// Loader yields the vectors of a requested word set.
	Loader = core.Loader

	// PairSeq is a stream of (word, vector) pairs with per-item errors.
	PairSeq = core.PairSeq

	// FindResult is returned by Find.
	FindResult = core.FindResult
)

// Open opens an embedding file, inferring its format from the file
// extension. Compression extensions are stripped first, so "vectors.txt.gz"
// resolves like "vectors.txt". Use WithFormat to bypass the inference.
func Open(path string, opts ...Option) (EmbFile, error) {
	cfg := newConfig(opts)
	format, err := resolveFormat(cfg, path)
	if err != nil {
		return nil, err
	}
	return format.Open(path, &cfg.open)
}

// Create writes an embedding file from a stream of pairs, inferring the
// format from the extension like Open does. When no compression is set
// explicitly, it is inferred from the extension as well ("vectors.txt.gz"
// gets gzipped).
//
// The txt and bin formats write an entry count before the data, so for them
// the count must be supplied with WithVocabSize; the convenience
// constructors below do that automatically.
func Create(path string, pairs PairSeq, opts ...Option) error {
	cfg := newConfig(opts)
	format, err := resolveFormat(cfg, path)
	if err != nil {
		return err
	}
	if cfg.create.Compression == "" {
		if codec, ok := compression.ByExtension(filepath.Ext(path)); ok {
			cfg.create.Compression = codec.Tag()
		}
	}
	return format.Create(path, pairs, &cfg.create)
}

// CreateFromPairs writes an embedding file holding exactly the given pairs,
// in order.
func CreateFromPairs(path string, pairs []WordVector, opts ...Option) error {
	opts = append(opts, withDefaultVocabSize(len(pairs)))
	return Create(path, core.Pairs(pairs...), opts...)
}

// CreateFromMap writes an embedding file holding the given word vectors.
// Entries are written in sorted word order, so the output is deterministic.
func CreateFromMap(path string, vectors map[string][]float64, opts ...Option) error {
	opts = append(opts, withDefaultVocabSize(len(vectors)))
	return Create(path, core.PairsFromMap(vectors), opts...)
}

// CreateFromFile converts an open embedding file into a new file at path,
// possibly of a different format. Entries stream through without being
// materialized.
func CreateFromFile(path string, src EmbFile, opts ...Option) error {
	if n := src.VocabSize(); n > 0 {
		opts = append(opts, withDefaultVocabSize(n))
	}
	return Create(path, core.FilePairs(src), opts...)
}

// withDefaultVocabSize fills in the entry count unless the caller declared
// one. It runs after the caller's options, so appending it is enough.
func withDefaultVocabSize(n int) Option {
	return func(cfg *config) {
		if cfg.create.VocabSize == 0 {
			cfg.create.VocabSize = n
		}
	}
}

func resolveFormat(cfg *config, path string) (core.Format, error) {
	if cfg.formatID != "" {
		format, ok := cfg.registry.ByID(cfg.formatID)
		if !ok {
			return core.Format{}, &UnknownFormatError{FormatID: cfg.formatID, Known: cfg.registry.FormatIDs()}
		}
		return format, nil
	}
	ext := filepath.Ext(compression.StripExtension(path))
	format, ok := cfg.registry.ByExtension(ext)
	if !ok {
		return core.Format{}, &UnknownFormatError{Extension: ext, Known: cfg.registry.FormatIDs()}
	}
	return format, nil
}

// Pairs returns a PairSeq yielding the given pairs.
func Pairs(pairs ...WordVector) PairSeq { return core.Pairs(pairs...) }

// PairsFromMap returns a PairSeq over a map, in sorted word order.
func PairsFromMap(vectors map[string][]float64) PairSeq { return core.PairsFromMap(vectors) }

// FilePairs returns a PairSeq streaming the entries of an open file.
func FilePairs(f EmbFile) PairSeq { return core.FilePairs(f) }

// Load returns the vector of every requested word and fails with a
// MissingWordError if any word is not in the file.
func Load(f EmbFile, words []string) (map[string][]float64, error) {
	return core.Load(f, words)
}

// Find returns the vectors of the requested words that are in the file and
// the sorted list of those that are not.
func Find(f EmbFile, words []string) (*FindResult, error) {
	return core.Find(f, words)
}

// ToDict reads the whole file into a word-to-vector map.
func ToDict(f EmbFile) (map[string][]float64, error) { return core.ToDict(f) }

// ToList reads the whole file into a slice of pairs in storage order.
func ToList(f EmbFile) ([]WordVector, error) { return core.ToList(f) }

// Words returns every word in the file, in storage order.
func Words(f EmbFile) ([]string, error) { return core.Words(f) }

// Filter returns the entries whose word satisfies pred, in storage order.
func Filter(f EmbFile, pred func(word string) bool) ([]WordVector, error) {
	return core.Filter(f, pred)
}

// SaveVocab writes the file's vocabulary to a text file, one word per line.
func SaveVocab(f EmbFile, path string) error { return core.SaveVocab(f, path) }
