package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "akini", DefaultTitle(""))
	assert.Equal(t, "akini", DefaultTitle("/"))
	assert.Equal(t, "About", DefaultTitle("about"))
	assert.Equal(t, "Release Notes", DefaultTitle("blog/release-notes"))
	assert.Equal(t, "Getting Started", DefaultTitle("docs/getting_started/"))
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "/", Identity(""))
	assert.Equal(t, "/about/", Identity("about"))
	assert.Equal(t, "/blog/post/", Identity("/blog/post/"))
}

func TestPathnameOf(t *testing.T) {
	pages := filepath.FromSlash("/srv/site/pages")

	got, ok := PathnameOf(pages, filepath.Join(pages, "blog", "post", DefinitionFile))
	assert.True(t, ok)
	assert.Equal(t, "blog/post", got)

	got, ok = PathnameOf(pages, filepath.Join(pages, DefinitionFile))
	assert.True(t, ok)
	assert.Equal(t, "", got)

	_, ok = PathnameOf(pages, filepath.FromSlash("/srv/site/components/x/page.yaml"))
	assert.False(t, ok)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults("contact-us")
	assert.Equal(t, "en", opts.Lang)
	assert.Equal(t, "Contact Us", opts.Title)

	opts = Options{Lang: "de", Title: "Kontakt"}.WithDefaults("contact-us")
	assert.Equal(t, "de", opts.Lang)
	assert.Equal(t, "Kontakt", opts.Title)
}

func TestComponentUnion(t *testing.T) {
	r := Rendered("<p>hi</p>")
	raw := Raw("<hr>")

	assert.Equal(t, KindRendered, r.Kind())
	assert.Equal(t, KindRaw, raw.Kind())
	assert.Equal(t, "<p>hi</p>", r.HTML())
	assert.Equal(t, "<hr>", raw.HTML())
	assert.Equal(t, "unknown", Component{}.Kind().String())
}

func TestFindDefinitions(t *testing.T) {
	pages := t.TempDir()
	for _, rel := range []string{"page.yaml", "blog/page.yaml", "blog/archive/page.yaml", "blog/post/dynamic.js", ".draft/page.yaml"} {
		path := filepath.Join(pages, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}

	got, err := FindDefinitions(pages)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/archive", "blog", ""}, got)

	_, err = FindDefinitions(filepath.Join(pages, "missing"))
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}
