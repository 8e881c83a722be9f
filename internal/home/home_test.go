package home

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/akini/internal/config"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

func writeManifest(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ManifestFile), []byte("name: test\n"), 0o644))
}

func TestResolve_FromNestedDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	writeManifest(t, root)

	for depth := 0; depth <= 6; depth++ {
		parts := []string{root}
		for i := range depth {
			parts = append(parts, "d"+strings.Repeat("x", i))
		}
		start := filepath.Join(parts...)
		require.NoError(t, os.MkdirAll(start, 0o755))

		got, err := NewResolver().Resolve(start)
		require.NoError(t, err, "depth %d", depth)
		assert.Equal(t, Home(root), got, "depth %d", depth)
	}
}

func TestResolve_FilePathUsesItsDirectory(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root)
	file := filepath.Join(root, "pages", "index", "page.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("title: x\n"), 0o644))

	got, err := NewResolver().Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, Home(root), got)
}

func TestResolve_NotFound(t *testing.T) {
	start := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, os.MkdirAll(start, 0o755))

	r := &Resolver{Marker: "akini-marker-that-does-not-exist.yaml"}
	_, err := r.Resolve(start)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}

func TestResolve_BoundStopsSearch(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root)
	start := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(start, 0o755))

	_, err := (&Resolver{MaxDepth: 3}).Resolve(start)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := (&Resolver{MaxDepth: 4}).Resolve(start)
	require.NoError(t, err)
	assert.Equal(t, Home(root), got)
}

func TestResolve_EmptyStart(t *testing.T) {
	_, err := NewResolver().Resolve("")
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestHomePaths(t *testing.T) {
	h := Home("/srv/site")
	assert.Equal(t, "/srv/site/pages", h.Pages())
	assert.Equal(t, "/srv/site/components", h.Components())
	assert.Equal(t, "/srv/site/build", h.Build())
	assert.Equal(t, "/srv/site/build/about", h.Path("build", "about"))
}
