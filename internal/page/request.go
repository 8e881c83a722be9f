package page

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/akini/internal/foundation/normalization"
)

// DefinitionFile is the page definition file name.
const DefinitionFile = "page.yaml"

// ScriptMode is the loading attribute emitted on a custom script tag.
type ScriptMode string

const (
	ScriptModeNone  ScriptMode = ""
	ScriptModeDefer ScriptMode = "defer"
	ScriptModeAsync ScriptMode = "async"
)

var scriptModeNormalizer = normalization.NewNormalizer(map[string]ScriptMode{
	"":      ScriptModeNone,
	"none":  ScriptModeNone,
	"defer": ScriptModeDefer,
	"async": ScriptModeAsync,
}, ScriptModeNone)

// Script is an extra <script> tag placed in the document head.
type Script struct {
	Src  string     `yaml:"src" json:"src" validate:"required"`
	Mode ScriptMode `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=defer async"`
}

// Import pulls the assets of a component folder into the page bundle. With Page
// set the folder is pages/<page>/components/<component>, otherwise
// components/<component>.
type Import struct {
	Page      string `yaml:"page,omitempty" json:"page,omitempty"`
	Component string `yaml:"component" json:"component" validate:"required"`
}

// Favicon describes the <link rel="icon"> tag.
type Favicon struct {
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Options is the build configuration of one compile.
type Options struct {
	Lang             string   `yaml:"lang,omitempty" json:"lang" validate:"required"`
	Title            string   `yaml:"title,omitempty" json:"title"`
	Building         bool     `yaml:"building,omitempty" json:"building,omitempty"`
	CustomScripts    []Script `yaml:"custom_scripts,omitempty" json:"custom_scripts,omitempty" validate:"dive"`
	ImportComponents []Import `yaml:"import_components,omitempty" json:"import_components,omitempty" validate:"dive"`
	Favicon          Favicon  `yaml:"favicon,omitempty" json:"favicon,omitempty"`
}

// Request is one page compile: the pathname under pages/ and its options.
type Request struct {
	Pathname string
	Options  Options
}

// WithDefaults fills in the language and a title derived from the pathname.
func (o Options) WithDefaults(pathname string) Options {
	if o.Lang == "" {
		o.Lang = "en"
	}
	if o.Title == "" {
		o.Title = DefaultTitle(pathname)
	}
	return o
}

// DefaultTitle turns the last pathname segment into a title ("release-notes"
// becomes "Release Notes"). The root page is titled "akini".
func DefaultTitle(pathname string) string {
	clean := strings.Trim(filepath.ToSlash(pathname), "/")
	if clean == "" || clean == "." {
		return "akini"
	}
	last := clean[strings.LastIndex(clean, "/")+1:]
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(last))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Identity is the display name of a page: its pathname wrapped in slashes,
// "/" for the root page.
func Identity(pathname string) string {
	clean := strings.Trim(filepath.ToSlash(pathname), "/")
	if clean == "" || clean == "." {
		return "/"
	}
	return "/" + clean + "/"
}

// PathnameOf derives the pathname of a definition file below pagesRoot. ok is
// false when the file does not live under pagesRoot.
func PathnameOf(pagesRoot, definitionPath string) (string, bool) {
	rel, err := filepath.Rel(pagesRoot, filepath.Dir(definitionPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}
