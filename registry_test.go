package embfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/formats/txt"
)

func TestDefaultRegistry(t *testing.T) {
	require.Equal(t, []string{"bin", "txt", "vvm"}, DefaultRegistry.FormatIDs())

	for ext, id := range map[string]string{
		".txt": "txt",
		".vec": "txt",
		".bin": "bin",
		".vvm": "vvm",
	} {
		f, ok := DefaultRegistry.ByExtension(ext)
		require.True(t, ok, ext)
		require.Equal(t, id, f.ID)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	fake := core.Format{ID: "fake", Extensions: []string{".fake"}}
	require.NoError(t, r.Register(fake, false))

	f, ok := r.ByID("fake")
	require.True(t, ok)
	require.Equal(t, "fake", f.ID)
	_, ok = r.ByExtension(".fake")
	require.True(t, ok)
	_, ok = r.ByExtension("fake") // missing dot is tolerated
	require.True(t, ok)

	err := r.Register(core.Format{ID: "fake"}, false)
	require.Error(t, err)
	require.NoError(t, r.Register(core.Format{ID: "fake"}, true))

	err = r.Register(core.Format{ID: "other", Extensions: []string{".fake"}}, false)
	require.Error(t, err)
}

func TestRegistry_AssociateExtension(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(txt.Descriptor, false))

	require.Error(t, r.AssociateExtension(".glove", "nope", false))
	require.NoError(t, r.AssociateExtension(".glove", "txt", false))

	f, ok := r.ByExtension(".GLOVE")
	require.True(t, ok)
	require.Equal(t, "txt", f.ID)
}
