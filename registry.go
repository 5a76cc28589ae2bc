package embfile

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/formats/txt"
	"github.com/janluke/embfile/formats/vvm"
	"github.com/janluke/embfile/formats/word2vec"
)

// Registry maps format IDs and file extensions to format implementations.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]core.Format
	byExt map[string]string // extension to format ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[string]core.Format),
		byExt: make(map[string]string),
	}
}

// Register adds a format under its ID and associates its extensions.
// Registering an already taken ID or extension fails unless overwrite is
// set.
func (r *Registry) Register(f core.Format, overwrite bool) error {
	if f.ID == "" {
		return fmt.Errorf("format has no ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byID[f.ID]; taken && !overwrite {
		return fmt.Errorf("format ID %q is already registered", f.ID)
	}
	for _, ext := range f.Extensions {
		ext = normalizeExt(ext)
		if owner, taken := r.byExt[ext]; taken && owner != f.ID && !overwrite {
			return fmt.Errorf("extension %q is already associated with format %q", ext, owner)
		}
	}
	r.byID[f.ID] = f
	for _, ext := range f.Extensions {
		r.byExt[normalizeExt(ext)] = f.ID
	}
	return nil
}

// AssociateExtension maps an additional extension to a registered format.
func (r *Registry) AssociateExtension(ext, formatID string, overwrite bool) error {
	ext = normalizeExt(ext)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[formatID]; !ok {
		return fmt.Errorf("unknown format %q", formatID)
	}
	if owner, taken := r.byExt[ext]; taken && owner != formatID && !overwrite {
		return fmt.Errorf("extension %q is already associated with format %q", ext, owner)
	}
	r.byExt[ext] = formatID
	return nil
}

// ByID returns the format registered under id.
func (r *Registry) ByID(id string) (core.Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byID[id]
	return f, ok
}

// ByExtension returns the format associated with a file extension.
func (r *Registry) ByExtension(ext string) (core.Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byExt[normalizeExt(ext)]
	if !ok {
		return core.Format{}, false
	}
	f, ok := r.byID[id]
	return f, ok
}

// FormatIDs returns the registered format IDs, sorted.
func (r *Registry) FormatIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry holds the built-in formats and is what the package-level
// Open and Create consult.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	for _, f := range []core.Format{txt.Descriptor, word2vec.Descriptor, vvm.Descriptor} {
		if err := r.Register(f, false); err != nil {
			panic(err)
		}
	}
	return r
}()

// Register adds a format to DefaultRegistry.
func Register(f core.Format, overwrite bool) error {
	return DefaultRegistry.Register(f, overwrite)
}

// AssociateExtension maps an extension to a format in DefaultRegistry.
func AssociateExtension(ext, formatID string, overwrite bool) error {
	return DefaultRegistry.AssociateExtension(ext, formatID, overwrite)
}
