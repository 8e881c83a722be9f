package page

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// markdownMatter is the optional frontmatter of a markdown component. When id
// or class is present the rendered markdown is wrapped in a <section>.
type markdownMatter struct {
	ID    string `yaml:"id"`
	Class string `yaml:"class"`
}

// Renderer turns the component specs of a definition into body components.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer with GFM markdown. Raw HTML inside markdown
// is passed through; content safety is the page author's concern.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Render produces the components of def in declaration order. Files referenced
// by markdown and template specs are resolved against the definition directory.
func (r *Renderer) Render(def *Definition) ([]Component, error) {
	dir := filepath.Dir(def.Path)
	out := make([]Component, 0, len(def.Components))
	for i, spec := range def.Components {
		var (
			c   Component
			err error
		)
		switch {
		case spec.Raw != nil:
			c = Raw(*spec.Raw)
		case spec.Markdown != "":
			c, err = r.renderMarkdown(filepath.Join(dir, spec.Markdown))
		case spec.Template != "":
			c, err = renderTemplate(filepath.Join(dir, spec.Template), spec.Data)
		}
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "render component").
				WithContext("index", i).
				WithContext("definition", def.Path).
				Build()
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Renderer) renderMarkdown(path string) (Component, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Component{}, err
	}
	var matter markdownMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &matter)
	if err != nil {
		return Component{}, fmt.Errorf("parse frontmatter of %s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return Component{}, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}
	html := buf.String()
	if matter.ID == "" && matter.Class == "" {
		return Rendered(html), nil
	}

	var open strings.Builder
	open.WriteString("<section")
	if matter.ID != "" {
		fmt.Fprintf(&open, ` id="%s"`, matter.ID)
	}
	if matter.Class != "" {
		fmt.Fprintf(&open, ` class="%s"`, matter.Class)
	}
	open.WriteString(">")
	return Rendered(open.String() + html + "</section>"), nil
}

func renderTemplate(path string, data map[string]any) (Component, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Component{}, err
	}
	tpl, err := template.New(filepath.Base(path)).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return Component{}, fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return Component{}, fmt.Errorf("execute template: %w", err)
	}
	return Rendered(buf.String()), nil
}
