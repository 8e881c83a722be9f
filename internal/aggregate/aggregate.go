// Package aggregate collects the script and style assets of a page by walking
// its folder tree and the folders of the components it imports.
package aggregate

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/home"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/page"
)

// Asset file names recognised during a walk.
const (
	ScriptFile = "dynamic.js"
	StyleFile  = "styles.css"
)

// SpawnFunc hands a page definition to an isolated build. It must not block on
// the build itself.
type SpawnFunc func(ctx context.Context, definitionPath string) error

// Aggregator walks asset folders. The zero value walks without spawning.
type Aggregator struct {
	// Building hands every page definition met during the walk to Spawn.
	Building bool
	// Self is the definition file of the page being compiled. It is never spawned.
	Self   string
	Spawn  SpawnFunc
	Logger *slog.Logger
}

// New returns an Aggregator that spawns page builds through spawn when a
// request has building enabled.
func New(spawn SpawnFunc, logger *slog.Logger) *Aggregator {
	return &Aggregator{Spawn: spawn, Logger: logger}
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Walk visits the entries of folder in name order and returns buffers extended
// with every script and style asset found, depth first.
func (a *Aggregator) Walk(ctx context.Context, folder string, buffers Buffers) (Buffers, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return buffers, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read asset folder").
			WithContext("path", folder).
			Build()
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return buffers, err
		}
		path := filepath.Join(folder, entry.Name())

		switch name := entry.Name(); {
		case name == ScriptFile:
			content, err := readAsset(path)
			if err != nil {
				return buffers, err
			}
			buffers = buffers.AppendScript(content)
		case name == StyleFile:
			content, err := readAsset(path)
			if err != nil {
				return buffers, err
			}
			buffers = buffers.AppendStyle(content)
		case name == page.DefinitionFile:
			a.spawn(ctx, path)
		case filepath.Ext(name) == "" && entry.IsDir():
			buffers, err = a.Walk(ctx, path, buffers)
			if err != nil {
				return buffers, err
			}
		}
	}
	return buffers, nil
}

func (a *Aggregator) spawn(ctx context.Context, path string) {
	if !a.Building || a.Spawn == nil || path == a.Self {
		return
	}
	if err := a.Spawn(ctx, path); err != nil {
		a.logger().Warn("Failed to spawn page build", logfields.Path(path), logfields.Error(err))
	}
}

// Collect gathers the assets of one page: the imported component folders in
// list order, then the page folder itself.
func (a *Aggregator) Collect(ctx context.Context, h home.Home, req page.Request) (Buffers, error) {
	w := *a
	w.Building = req.Options.Building
	w.Self = filepath.Join(h.Pages(), filepath.FromSlash(req.Pathname), page.DefinitionFile)

	var buffers Buffers
	for _, imp := range req.Options.ImportComponents {
		folder := ImportFolder(h, imp)
		next, err := w.Walk(ctx, folder, buffers)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && isRoot(err, folder) {
				w.logger().Debug("Skipping missing component folder",
					logfields.Path(folder), slog.String("component", imp.Component))
				continue
			}
			return buffers, err
		}
		buffers = next
	}

	primary := filepath.Join(h.Pages(), filepath.FromSlash(req.Pathname))
	if _, err := os.Stat(primary); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return buffers, foundationerrors.NotFoundError("page folder does not exist").
				WithContext("path", primary).
				WithCause(err).
				Build()
		}
		return buffers, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "stat page folder").
			WithContext("path", primary).
			Build()
	}
	return w.Walk(ctx, primary, buffers)
}

// ImportFolder resolves the folder of an imported component.
func ImportFolder(h home.Home, imp page.Import) string {
	if imp.Page != "" {
		return filepath.Join(h.Pages(), filepath.FromSlash(imp.Page), "components", imp.Component)
	}
	return filepath.Join(h.Components(), imp.Component)
}

// isRoot reports whether err was raised while listing folder itself rather
// than something beneath it.
func isRoot(err error, folder string) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	return filepath.Clean(pathErr.Path) == filepath.Clean(folder)
}

func readAsset(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read asset").
			WithContext("path", path).
			Build()
	}
	return string(data), nil
}
