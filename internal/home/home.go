// Package home locates the project root by walking upward from a start
// directory until the manifest marker is found.
package home

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/akini/internal/config"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// DefaultMaxDepth bounds the number of directories inspected by Resolve.
const DefaultMaxDepth = 64

// ErrNotFound is in the chain of every resolution failure caused by a missing manifest.
var ErrNotFound = errors.New("project manifest not found")

// Home is the absolute project root. The zero value is unresolved.
type Home string

// Path returns the root joined with elem.
func (h Home) Path(elem ...string) string {
	return filepath.Join(append([]string{string(h)}, elem...)...)
}

// Pages returns the pages root.
func (h Home) Pages() string { return h.Path(config.PagesDir) }

// Components returns the shared components root.
func (h Home) Components() string { return h.Path(config.ComponentsDir) }

// Build returns the build output root.
func (h Home) Build() string { return h.Path(config.BuildDir) }

// Resolver finds a Home by searching for Marker upward.
type Resolver struct {
	Marker   string // defaults to akini.yaml
	MaxDepth int    // directories inspected, including the start directory
}

// NewResolver returns a Resolver for the akini manifest with the default bound.
func NewResolver() *Resolver {
	return &Resolver{Marker: config.ManifestFile, MaxDepth: DefaultMaxDepth}
}

// Resolve walks upward from startDir. A file path is reduced to its directory.
func (r *Resolver) Resolve(startDir string) (Home, error) {
	if startDir == "" {
		return "", foundationerrors.ValidationError("start directory is empty").Build()
	}
	marker := r.Marker
	if marker == "" {
		marker = config.ManifestFile
	}
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve start directory").
			WithContext("path", startDir).
			Build()
	}
	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	cur := filepath.Clean(abs)
	for range maxDepth {
		_, err := os.Stat(filepath.Join(cur, marker))
		if err == nil {
			return Home(cur), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "inspect directory").
				WithContext("path", cur).
				Build()
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return "", foundationerrors.NotFoundError("project home not found").
		WithContext("start", abs).
		WithContext("marker", marker).
		WithContext("max_depth", maxDepth).
		WithCause(ErrNotFound).
		Build()
}
