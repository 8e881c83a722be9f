package assemble

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/page"
)

// identity leaves buffers untouched so documents are easy to assert on.
type identity struct{}

func (identity) Script(src string) (string, error) { return src, nil }
func (identity) Style(src string) (string, error)  { return src, nil }

type failing struct{ onStyle bool }

func (f failing) Script(src string) (string, error) {
	if f.onStyle {
		return src, nil
	}
	return "", errors.New("unexpected token")
}

func (f failing) Style(string) (string, error) { return "", errors.New("unterminated block") }

func parse(t *testing.T, doc string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return n
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func TestAssemble_Substitution(t *testing.T) {
	opts := page.Options{
		Lang:  "de",
		Title: "Über uns",
		CustomScripts: []page.Script{
			{Src: "a.js", Mode: page.ScriptModeDefer},
			{Src: "b.js"},
		},
		Favicon: page.Favicon{Type: "image/png", Path: "/favicon.png"},
	}
	components := []page.Component{page.Raw("<h1>Hi</h1>"), page.Rendered("<p>body</p>")}

	art, err := New(identity{}).Assemble(components, aggregate.Buffers{}, opts)
	require.NoError(t, err)

	doc := parse(t, art.HTML)
	htmlNode := findAll(doc, "html")
	require.Len(t, htmlNode, 1)
	assert.Equal(t, "de", attr(htmlNode[0], "lang"))

	titles := findAll(doc, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "Über uns", titles[0].FirstChild.Data)

	scripts := findAll(doc, "script")
	require.Len(t, scripts, 2, "no script.js tag without script content")
	assert.Equal(t, "a.js", attr(scripts[0], "src"))
	assert.True(t, hasAttr(scripts[0], "defer"))
	assert.Equal(t, "b.js", attr(scripts[1], "src"))
	assert.False(t, hasAttr(scripts[1], "defer"))

	var icon *html.Node
	for _, l := range findAll(doc, "link") {
		if attr(l, "rel") == "icon" {
			icon = l
		}
	}
	require.NotNil(t, icon)
	assert.Equal(t, "/favicon.png", attr(icon, "href"))
	assert.Equal(t, "image/png", attr(icon, "type"))

	assert.Contains(t, art.HTML, `<main id="root">`+"\n<h1>Hi</h1><p>body</p>\n</main>")
}

func TestAssemble_ScriptTagWhenBufferHasContent(t *testing.T) {
	buffers := aggregate.Buffers{}.AppendScript("console.log(1)")
	art, err := New(identity{}).Assemble(nil, buffers, page.Options{Lang: "en", Title: "x"})
	require.NoError(t, err)

	scripts := findAll(parse(t, art.HTML), "script")
	require.Len(t, scripts, 1)
	assert.Equal(t, ScriptFile, attr(scripts[0], "src"))
	assert.True(t, hasAttr(scripts[0], "defer"))
	assert.Equal(t, "console.log(1)\n", art.JS)
}

func TestAssemble_NoEscaping(t *testing.T) {
	art, err := New(identity{}).Assemble(nil, aggregate.Buffers{}, page.Options{Lang: "en", Title: "A & B"})
	require.NoError(t, err)
	assert.Contains(t, art.HTML, "<title>A & B</title>")
}

func TestAssemble_StylesheetStartsWithReset(t *testing.T) {
	buffers := aggregate.Buffers{}.AppendStyle("main { color: red; }")
	art, err := New(nil).Assemble(nil, buffers, page.Options{Lang: "en", Title: "x"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(art.CSS, ResetCSS))
	assert.Equal(t, "main{color:red}", strings.TrimPrefix(art.CSS, ResetCSS))
	assert.Contains(t, art.HTML, `<link rel="stylesheet" href="styles.css">`)
}

func TestAssemble_Idempotent(t *testing.T) {
	buffers := aggregate.Buffers{}.AppendScript("let a = 1;").AppendStyle("p { margin: 0 }")
	opts := page.Options{Lang: "en", Title: "x", CustomScripts: []page.Script{{Src: "c.js", Mode: page.ScriptModeAsync}}}
	components := []page.Component{page.Rendered("<p>x</p>")}
	a := New(nil)

	first, err := a.Assemble(components, buffers, opts)
	require.NoError(t, err)
	second, err := a.Assemble(components, buffers, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssemble_MinifierErrors(t *testing.T) {
	tests := map[string]Minifier{
		"script": failing{},
		"style":  failing{onStyle: true},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			art, err := New(m).Assemble(nil, aggregate.Buffers{}, page.Options{Lang: "en"})
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryMinify))
			assert.Equal(t, Artifact{}, art)
		})
	}
}

func TestTdewolffMinifier(t *testing.T) {
	m := NewMinifier()

	css, err := m.Style("body {\n  color: red;\n}\n")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", css)

	js, err := m.Script("")
	require.NoError(t, err)
	assert.Empty(t, js)
}

func TestTdewolffMinifier_RejectsMalformedStyles(t *testing.T) {
	m := NewMinifier()
	for name, src := range map[string]string{
		"stray closing braces": "p { color: red; } }}} a {",
		"unclosed block":       "p { color: red",
		"unclosed bracket":     "a[href { color: red }",
		"unclosed function":    "p { color: rgb(1, 2, 3 }",
		"bad string":           "p { content: \"abc\n }",
	} {
		t.Run(name, func(t *testing.T) {
			out, err := m.Style(src)
			require.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestTdewolffMinifier_AcceptsWellFormedStyles(t *testing.T) {
	m := NewMinifier()
	for _, src := range []string{
		"",
		"/* only a comment */",
		"@media (max-width: 600px) { a:not(.x) { color: rgb(1, 2, 3); } }",
		"a[href^=\"http\"] { background: url(img/bg.png) }",
		"p { content: \"}\" }",
	} {
		_, err := m.Style(src)
		assert.NoError(t, err, src)
	}
}

func TestAssemble_MalformedBuffersFailWithDefaultMinifier(t *testing.T) {
	tests := map[string]aggregate.Buffers{
		"style":  aggregate.Buffers{}.AppendStyle("p { color: red; } }}} a {"),
		"script": aggregate.Buffers{}.AppendScript("function ("),
	}
	for name, buffers := range tests {
		t.Run(name, func(t *testing.T) {
			art, err := New(nil).Assemble(nil, buffers, page.Options{Lang: "en"})
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryMinify))
			assert.Equal(t, Artifact{}, art)
		})
	}
}
