package assemble

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Media types registered with the default minifier.
const (
	MediaTypeScript = "application/javascript"
	MediaTypeStyle  = "text/css"
)

// Minifier compacts the aggregated script and style buffers.
type Minifier interface {
	Script(src string) (string, error)
	Style(src string) (string, error)
}

// TdewolffMinifier minifies with github.com/tdewolff/minify.
type TdewolffMinifier struct {
	m *minify.M
}

// NewMinifier returns the default Minifier.
func NewMinifier() *TdewolffMinifier {
	m := minify.New()
	m.AddFunc(MediaTypeScript, js.Minify)
	m.AddFunc(MediaTypeStyle, css.Minify)
	return &TdewolffMinifier{m: m}
}

func (t *TdewolffMinifier) Script(src string) (string, error) {
	return t.m.String(MediaTypeScript, src)
}

// Style validates src before minifying it. The CSS minifier itself accepts
// malformed input without error.
func (t *TdewolffMinifier) Style(src string) (string, error) {
	if err := validateStyle(src); err != nil {
		return "", err
	}
	return t.m.String(MediaTypeStyle, src)
}
