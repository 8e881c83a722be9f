// Package assemble turns rendered components and aggregated asset buffers into
// the three files of a built page.
package assemble

import (
	"strings"
	"text/template"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/page"
)

// Output file names inside build/<pathname>/.
const (
	HTMLFile   = "index.html"
	ScriptFile = "script.js"
	StyleFile  = "styles.css"
)

// Artifact is the output of one successful compile.
type Artifact struct {
	HTML string
	JS   string
	CSS  string
}

// Files maps output file names to their content.
func (a Artifact) Files() map[string]string {
	return map[string]string{
		HTMLFile:   a.HTML,
		ScriptFile: a.JS,
		StyleFile:  a.CSS,
	}
}

// The shell is plain text/template: component markup and option values are
// inserted verbatim.
var shell = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .Favicon.Path}}
<link rel="icon"{{if .Favicon.Type}} type="{{.Favicon.Type}}"{{end}} href="{{.Favicon.Path}}">
{{- end}}
<link rel="stylesheet" href="` + StyleFile + `">
{{- if .HasScript}}
<script src="` + ScriptFile + `" defer></script>
{{- end}}
{{- range .CustomScripts}}
<script src="{{.Src}}"{{if .Mode}} {{.Mode}}{{end}}></script>
{{- end}}
</head>
<body>
<main id="root">
{{.Body}}
</main>
</body>
</html>
`))

type shellData struct {
	page.Options
	HasScript bool
	Body      string
}

// Assembler builds artifacts.
type Assembler struct {
	minifier Minifier
}

// New returns an Assembler using m, or the default minifier when m is nil.
func New(m Minifier) *Assembler {
	if m == nil {
		m = NewMinifier()
	}
	return &Assembler{minifier: m}
}

// Assemble produces the page artifact. Any minifier failure fails the whole
// assembly.
func (a *Assembler) Assemble(components []page.Component, buffers aggregate.Buffers, opts page.Options) (Artifact, error) {
	js, err := a.minifier.Script(buffers.Script)
	if err != nil {
		return Artifact{}, foundationerrors.MinifyError("minify script").WithCause(err).Build()
	}
	css, err := a.minifier.Style(buffers.Style)
	if err != nil {
		return Artifact{}, foundationerrors.MinifyError("minify styles").WithCause(err).Build()
	}

	var body strings.Builder
	for _, c := range components {
		body.WriteString(c.HTML())
	}

	var doc strings.Builder
	err = shell.Execute(&doc, shellData{
		Options:   opts,
		HasScript: strings.TrimSpace(js) != "",
		Body:      body.String(),
	})
	if err != nil {
		return Artifact{}, foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "render document shell").Build()
	}

	return Artifact{HTML: doc.String(), JS: js, CSS: ResetCSS + css}, nil
}
