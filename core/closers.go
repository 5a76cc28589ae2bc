package core

import "io"

// CloserSet tracks the readers and loaders handed out by an open file, so
// that closing the file releases everything still open.
type CloserSet struct {
	items []io.Closer
}

// Track registers c for release.
func (cs *CloserSet) Track(c io.Closer) {
	cs.items = append(cs.items, c)
}

// CloseAll closes every tracked item, keeping the first error. The set is
// emptied; closing an already-closed reader/loader is a no-op for all
// implementations in this module, so double tracking is harmless.
func (cs *CloserSet) CloseAll() error {
	var first error
	for _, c := range cs.items {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	cs.items = nil
	return first
}
