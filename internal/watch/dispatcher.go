// Package watch rebuilds pages in isolated processes as their files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	"git.home.luguber.info/inful/akini/internal/compiler"
	"git.home.luguber.info/inful/akini/internal/config"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/home"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/metrics"
	"git.home.luguber.info/inful/akini/internal/page"
)

// ErrServerChanged is returned by Run when the server directory changed. The
// process is expected to exit and be restarted by its supervisor.
var ErrServerChanged = errors.New("server directory changed")

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSearchDepth bounds the upward search for a page definition.
func WithSearchDepth(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.searchDepth = n
		}
	}
}

// WithServerDir also watches dir; any change there ends Run with ErrServerChanged.
func WithServerDir(dir string) Option {
	return func(d *Dispatcher) { d.serverDir = dir }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher maps filesystem changes under pages/ to isolated page builds.
type Dispatcher struct {
	home        home.Home
	spawn       aggregate.SpawnFunc
	searchDepth int
	serverDir   string
	recorder    metrics.Recorder
	logger      *slog.Logger

	state atomic.Int32
}

// New creates a Dispatcher handing builds to spawn.
func New(h home.Home, spawn aggregate.SpawnFunc, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		home:        h,
		spawn:       spawn,
		searchDepth: config.DefaultSearchDepth,
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return State(d.state.Load()) }

func (d *Dispatcher) setState(s State) {
	if prev := State(d.state.Swap(int32(s))); prev != s {
		d.logger.Debug("Watch state changed", logfields.State(s.String()), slog.String("from", prev.String()))
	}
}

// Run starts watching, performs a full build of the pages tree and then
// dispatches builds for every change until ctx is done. The state stays Idle
// when the initial build fails. It returns ErrServerChanged when the server
// directory changes.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.setState(StateIdle)
	pages := d.home.Pages()

	watcher, err := newWatcher(pages)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	var serverEvents <-chan fsnotify.Event
	var serverErrors <-chan error
	if d.serverDir != "" {
		sw, err := newWatcher(d.serverDir)
		if err != nil {
			return err
		}
		defer func() { _ = sw.Close() }()
		serverEvents, serverErrors = sw.Events, sw.Errors
	}

	// Watches are registered before the initial walk so edits made during it
	// are still dispatched. Duplicate spawns coalesce in the spawner.
	d.recorder.IncFullBuild()
	if err := compiler.FullBuild(ctx, d.home, d.spawn); err != nil {
		return fmt.Errorf("initial full build: %w", err)
	}

	d.setState(StateWatching)
	d.logger.Info("Watching for changes", logfields.Path(pages))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(ctx, watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", logfields.Error(err))
		case ev, ok := <-serverEvents:
			if !ok {
				serverEvents = nil
				continue
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			d.setState(StateExit)
			d.logger.Info("Server directory changed; exiting", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
			return ErrServerChanged
		case err, ok := <-serverErrors:
			if !ok {
				serverErrors = nil
				continue
			}
			d.logger.Warn("server watcher error", logfields.Error(err))
		}
	}
}

func newWatcher(root string) (*fsnotify.Watcher, error) {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, foundationerrors.NotFoundError("watch root is not a directory").
			WithContext("path", root).
			WithCause(err).
			Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryWatch, "create watcher").Build()
	}
	if err := addDirsRecursive(w, root); err != nil {
		_ = w.Close()
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryWatch, "watch directory tree").
			WithContext("path", root).
			Build()
	}
	return w, nil
}

func (d *Dispatcher) handleEvent(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || ev.Op == fsnotify.Chmod {
		d.recorder.IncWatchEvent(metrics.DispatchIgnored)
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
		}
	}
	if filepath.Base(ev.Name) == page.DefinitionFile && (ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)) {
		d.logger.Debug("Page definition removed", logfields.Path(ev.Name))
		d.recorder.IncWatchEvent(metrics.DispatchIgnored)
		return
	}

	rel, err := filepath.Rel(d.home.Pages(), ev.Name)
	if err != nil {
		d.recorder.IncWatchEvent(metrics.DispatchIgnored)
		return
	}
	d.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	d.Dispatch(ctx, rel)
}

// Dispatch spawns the build of the page that owns relPath, a path relative to
// pages/. A page definition is built directly. Any other entry is attributed
// to the nearest page.yaml found searching upward from its directory, at most
// searchDepth directories and never above pages/. It returns the spawned
// definition, or false when the event was dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, relPath string) (string, bool) {
	d.setState(StateDispatching)
	defer d.state.CompareAndSwap(int32(StateDispatching), int32(StateWatching))

	pages := d.home.Pages()
	abs := filepath.Join(pages, filepath.FromSlash(relPath))

	var (
		target string
		ok     bool
	)
	if filepath.Base(abs) == page.DefinitionFile {
		target, ok = abs, true
	} else {
		target, ok = d.findDefinition(pages, filepath.Dir(abs))
	}
	if !ok {
		d.logger.Debug("No page owns changed entry; dropping event",
			logfields.Path(relPath), slog.Int("search_depth", d.searchDepth))
		d.recorder.IncWatchEvent(metrics.DispatchDropped)
		return "", false
	}

	d.recorder.IncWatchEvent(metrics.DispatchSpawned)
	if err := d.spawn(ctx, target); err != nil {
		d.logger.Warn("Failed to spawn page build", logfields.Path(target), logfields.Error(err))
	}
	return target, true
}

func (d *Dispatcher) findDefinition(pages, dir string) (string, bool) {
	if !within(pages, dir) {
		return "", false
	}
	for i := 0; i < d.searchDepth; i++ {
		candidate := filepath.Join(dir, page.DefinitionFile)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return candidate, true
		}
		if filepath.Clean(dir) == filepath.Clean(pages) {
			return "", false
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
