package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

func TestParseDefinition_Full(t *testing.T) {
	data := dedent.Dedent(`
		lang: fr
		title: Accueil
		building: true
		favicon:
		  type: image/png
		  path: /favicon.png
		custom_scripts:
		  - src: a.js
		    mode: DEFER
		  - src: b.js
		import_components:
		  - page: home
		    component: header
		  - component: footer
		components:
		  - raw: "<h1>Hello</h1>"
		  - markdown: intro.md
		  - template: card.html
		    data:
		      name: world
	`)

	def, err := ParseDefinition([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "fr", def.Lang)
	assert.Equal(t, "Accueil", def.Title)
	assert.True(t, def.Building)
	assert.Equal(t, Favicon{Type: "image/png", Path: "/favicon.png"}, def.Favicon)
	assert.Equal(t, []Script{{Src: "a.js", Mode: ScriptModeDefer}, {Src: "b.js"}}, def.CustomScripts)
	assert.Equal(t, []Import{{Page: "home", Component: "header"}, {Component: "footer"}}, def.ImportComponents)
	require.Len(t, def.Components, 3)
	assert.Equal(t, "<h1>Hello</h1>", *def.Components[0].Raw)
	assert.Equal(t, "world", def.Components[2].Data["name"])
}

func TestParseDefinition_Empty(t *testing.T) {
	def, err := ParseDefinition(nil)
	require.NoError(t, err)
	assert.Empty(t, def.Components)
}

func TestParseDefinition_Invalid(t *testing.T) {
	tests := map[string]struct {
		data     string
		category foundationerrors.ErrorCategory
	}{
		"unknown mode":        {"custom_scripts:\n  - src: a.js\n    mode: eager\n", foundationerrors.CategoryValidation},
		"script without src":  {"custom_scripts:\n  - mode: defer\n", foundationerrors.CategoryValidation},
		"import without name": {"import_components:\n  - page: home\n", foundationerrors.CategoryValidation},
		"two sources":         {"components:\n  - raw: x\n    markdown: a.md\n", foundationerrors.CategoryValidation},
		"no source":           {"components:\n  - data: {a: 1}\n", foundationerrors.CategoryValidation},
		"unknown field":       {"titel: typo\n", foundationerrors.CategoryConfig},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.md"), []byte("# Intro\n\nSome *text*.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boxed.md"), []byte("---\nid: box\nclass: note\n---\nBoxed\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.html"), []byte(`<div class="card">{{.name}}</div>`), 0o644))

	raw := "<h1>Hello</h1>"
	def := &Definition{
		Path: filepath.Join(dir, DefinitionFile),
		Components: []ComponentSpec{
			{Raw: &raw},
			{Markdown: "intro.md"},
			{Markdown: "boxed.md"},
			{Template: "card.html", Data: map[string]any{"name": "<b>world</b>"}},
		},
	}

	components, err := NewRenderer().Render(def)
	require.NoError(t, err)
	require.Len(t, components, 4)

	assert.Equal(t, Raw(raw), components[0])
	assert.Equal(t, KindRendered, components[1].Kind())
	assert.Contains(t, components[1].HTML(), `<h1 id="intro">Intro</h1>`)
	assert.Contains(t, components[1].HTML(), "<em>text</em>")
	assert.Equal(t, "<section id=\"box\" class=\"note\"><p>Boxed</p>\n</section>", components[2].HTML())
	assert.Equal(t, `<div class="card"><b>world</b></div>`, components[3].HTML())
}

func TestRenderer_MissingFile(t *testing.T) {
	def := &Definition{
		Path:       filepath.Join(t.TempDir(), DefinitionFile),
		Components: []ComponentSpec{{Markdown: "missing.md"}},
	}
	_, err := NewRenderer().Render(def)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryBuild))
}

func TestLoadDefinition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefinitionFile)
	require.NoError(t, os.WriteFile(path, []byte("title: About\n"), 0o644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, path, def.Path)
	assert.Equal(t, "About", def.Title)

	_, err = LoadDefinition(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryFileSystem))
}
