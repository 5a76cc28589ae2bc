package core

import (
	"io"
	"sort"

	"github.com/janluke/embfile/dtype"
)

// SequentialLoader scans a file once, front to back, yielding the entries
// whose word was requested. It stops early once every requested word has
// been found, without reading the remaining bytes.
type SequentialLoader struct {
	reader    Reader
	remaining map[string]struct{}
	out       dtype.DType
	done      bool
	closed    bool
}

// NewSequentialLoader returns a loader driving r. Requested words are
// deduplicated. If out is a valid dtype, found vectors are converted to it
// after decoding. The loader owns r and closes it on every exit path.
func NewSequentialLoader(r Reader, words []string, out dtype.DType) *SequentialLoader {
	remaining := make(map[string]struct{}, len(words))
	for _, w := range words {
		remaining[w] = struct{}{}
	}
	return &SequentialLoader{reader: r, remaining: remaining, out: out}
}

// Next returns the next matching (word, vector) pair, or io.EOF once all
// requested words were found or the file is exhausted.
func (l *SequentialLoader) Next() (WordVector, error) {
	if l.done {
		return WordVector{}, io.EOF
	}
	if l.closed {
		return WordVector{}, ErrClosed
	}
	if len(l.remaining) == 0 {
		// Early exit: every requested word was found; the rest of the file
		// is never read.
		return WordVector{}, l.finish()
	}

	for {
		wv, err := l.reader.Next()
		if err == io.EOF {
			return WordVector{}, l.finish()
		}
		if err != nil {
			l.Close()
			return WordVector{}, err
		}
		if _, ok := l.remaining[wv.Word]; ok {
			delete(l.remaining, wv.Word)
			if l.out.IsValid() {
				wv.Vector = dtype.Convert(wv.Vector, l.out)
			}
			return wv, nil
		}
	}
}

func (l *SequentialLoader) finish() error {
	l.done = true
	if err := l.close(); err != nil {
		return err
	}
	return io.EOF
}

// MissingWords returns the requested words not found in the file, sorted.
// It returns ErrLoaderActive until the loader has been exhausted.
func (l *SequentialLoader) MissingWords() ([]string, error) {
	if !l.done {
		return nil, ErrLoaderActive
	}
	return sortedWords(l.remaining), nil
}

func (l *SequentialLoader) close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.reader.Close()
}

// Close releases the underlying reader. Closing before exhaustion leaves the
// missing-word set undefined.
func (l *SequentialLoader) Close() error {
	return l.close()
}

// RandomAccessor resolves words to positions and positions to vectors, as the
// VVM vocabulary index does. Position lookups must be O(1) amortized.
type RandomAccessor interface {
	// Position returns the entry index of word in the file.
	Position(word string) (int, bool)

	// VectorAt reads the vector stored at the given entry index.
	VectorAt(pos int) ([]float64, error)
}

// RandomAccessLoader resolves a requested word set through a prebuilt
// word->offset index instead of scanning, O(1) amortized per word.
// Found words are fetched in file-position order.
type RandomAccessLoader struct {
	acc     RandomAccessor
	found   []foundWord
	missing map[string]struct{}
	next    int
	out     dtype.DType
	done    bool
	closed  bool
	closeFn func() error
}

type foundWord struct {
	word string
	pos  int
}

// NewRandomAccessLoader returns a loader resolving words through acc.
// closeFn, if not nil, is invoked once when the loader is closed (it releases
// the loader's private stream handle).
func NewRandomAccessLoader(acc RandomAccessor, words []string, out dtype.DType, closeFn func() error) *RandomAccessLoader {
	missing := make(map[string]struct{})
	seen := make(map[string]struct{}, len(words))
	var found []foundWord
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if pos, ok := acc.Position(w); ok {
			found = append(found, foundWord{word: w, pos: pos})
		} else {
			missing[w] = struct{}{}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	return &RandomAccessLoader{acc: acc, found: found, missing: missing, out: out, closeFn: closeFn}
}

// Next returns the next found (word, vector) pair, or io.EOF once every
// available word has been yielded.
func (l *RandomAccessLoader) Next() (WordVector, error) {
	if l.done {
		return WordVector{}, io.EOF
	}
	if l.closed {
		return WordVector{}, ErrClosed
	}
	if l.next == len(l.found) {
		l.done = true
		if err := l.close(); err != nil {
			return WordVector{}, err
		}
		return WordVector{}, io.EOF
	}

	fw := l.found[l.next]
	vec, err := l.acc.VectorAt(fw.pos)
	if err != nil {
		l.Close()
		return WordVector{}, err
	}
	l.next++
	if l.out.IsValid() {
		vec = dtype.Convert(vec, l.out)
	}
	return WordVector{Word: fw.word, Vector: vec}, nil
}

// MissingWords returns the requested words absent from the index, sorted.
// For contract uniformity with SequentialLoader it returns ErrLoaderActive
// until the loader is exhausted, even though the set is known upfront here.
func (l *RandomAccessLoader) MissingWords() ([]string, error) {
	if !l.done {
		return nil, ErrLoaderActive
	}
	return sortedWords(l.missing), nil
}

func (l *RandomAccessLoader) close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if l.closeFn != nil {
		return l.closeFn()
	}
	return nil
}

// Close releases the loader's stream handle.
func (l *RandomAccessLoader) Close() error {
	return l.close()
}

func sortedWords(set map[string]struct{}) []string {
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
