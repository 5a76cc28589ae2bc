// Package embfile reads and writes word embedding files in a uniform way
// across formats.
//
// Three formats are built in:
//
//   - "txt": the textual format of GloVe and fastText (.txt, .vec), entries
//     like "word 0.1 0.2 ...", with an optional, auto-detected header.
//   - "bin": the word2vec binary format (.bin), raw little-endian float32
//     vectors behind an ASCII header.
//   - "vvm": a tar-based container (.vvm) storing the vocabulary and a dense
//     vector block separately, supporting constant-time word lookups.
//
// Any file can additionally be gzip, zstd or lz4 compressed; compression is
// inferred from the extension (e.g. "vectors.txt.gz") and handled
// transparently both on read and on write.
//
// Open a file and ask for specific words:
//
//	f, err := embfile.Open("vectors.vvm")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer f.Close()
//
//	res, err := embfile.Find(f, []string{"hello", "world", "xyzzy"})
//	// res.Vectors holds the vectors found, res.MissingWords the rest.
//
// Or build a dense matrix for a vocabulary, with out-of-vocabulary rows
// drawn from a distribution fit to the found vectors:
//
//	out, err := embfile.BuildMatrix(f, vocab)
//
// Formats register themselves in DefaultRegistry; custom formats can be
// added with Register and are then picked up by Open and Create through
// their file extensions.
package embfile
