package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// ComponentSpec declares one body component in page.yaml. Exactly one of Raw,
// Markdown or Template must be set.
type ComponentSpec struct {
	Raw      *string        `yaml:"raw,omitempty"`
	Markdown string         `yaml:"markdown,omitempty"`
	Template string         `yaml:"template,omitempty"`
	Data     map[string]any `yaml:"data,omitempty"`
}

// Definition is a parsed page.yaml.
type Definition struct {
	Options    `yaml:",inline"`
	Components []ComponentSpec `yaml:"components,omitempty"`

	// Path is the absolute location of the definition file.
	Path string `yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadDefinition reads and validates a page definition file.
func LoadDefinition(path string) (*Definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve page definition").
			WithContext("path", path).
			Build()
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read page definition").
			WithContext("path", abs).
			Build()
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	def.Path = abs
	return def, nil
}

// ParseDefinition decodes and validates page.yaml content.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "decode page definition").Build()
	}

	for i := range def.CustomScripts {
		mode, err := scriptModeNormalizer.NormalizeWithError(string(def.CustomScripts[i].Mode))
		if err != nil {
			return nil, foundationerrors.ValidationError("invalid custom script mode").
				WithContext("src", def.CustomScripts[i].Src).
				WithCause(err).
				Build()
		}
		def.CustomScripts[i].Mode = mode
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks option constraints and that every component names exactly one source.
func (d *Definition) Validate() error {
	opts := d.Options.WithDefaults("")
	if err := validate.Struct(opts); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid page options").Build()
	}
	for i, c := range d.Components {
		set := 0
		if c.Raw != nil {
			set++
		}
		if c.Markdown != "" {
			set++
		}
		if c.Template != "" {
			set++
		}
		if set != 1 {
			return foundationerrors.ValidationError("component must set exactly one of raw, markdown or template").
				WithContext("index", i).
				Build()
		}
	}
	return nil
}
