package isolate

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/metrics"
	"git.home.luguber.info/inful/akini/internal/page"
)

// Outcome is the final state of one isolated build.
type Outcome struct {
	BuildID    string
	Page       string
	ModulePath string
	ExitCode   int
	Err        error
	Canceled   bool
	Duration   time.Duration
}

// Success reports whether the child exited with code 0.
func (o Outcome) Success() bool {
	return o.Err == nil && !o.Canceled && o.ExitCode == 0
}

// Handle identifies one isolated build.
type Handle struct {
	ID         string
	Page       string
	ModulePath string

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Done is closed when the build has ended.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Outcome returns the result of the build. Only valid after Done is closed.
func (h *Handle) Outcome() Outcome { return h.outcome }

type entry struct {
	handle  *Handle
	pending bool
}

// Option configures a Spawner.
type Option func(*Spawner)

// WithObserver adds a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Spawner) { s.observers = append(s.observers, o) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Spawner) { s.recorder = r }
}

// WithMaxConcurrent bounds the number of children running at once. Zero means
// unbounded.
func WithMaxConcurrent(n int) Option {
	return func(s *Spawner) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithCollectOutcomes keeps the outcome of every finished build until the
// next Wait. Without it Wait only reports idleness; long-running callers
// observe results through observers instead.
func WithCollectOutcomes() Option {
	return func(s *Spawner) { s.collect = true }
}

// WithLogger sets the logger used by the default log observer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Spawner) { s.logger = l }
}

// Spawner launches isolated page builds.
type Spawner struct {
	pagesRoot string
	launcher  Launcher
	observers []Observer
	recorder  metrics.Recorder
	sem       *semaphore.Weighted
	logger    *slog.Logger
	collect   bool

	mu       sync.Mutex
	registry map[string]*entry
	idle     chan struct{}
	outcomes []Outcome
}

// NewSpawner creates a Spawner for definitions below pagesRoot. Lifecycle
// events are always logged; further observers come from options.
func NewSpawner(pagesRoot string, launcher Launcher, opts ...Option) *Spawner {
	s := &Spawner{
		pagesRoot: pagesRoot,
		launcher:  launcher,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		registry:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observers = append([]Observer{LogObserver{Logger: s.logger}}, s.observers...)
	return s
}

// PageOf returns the page identity of a definition path.
func (s *Spawner) PageOf(modulePath string) string {
	if pathname, ok := page.PathnameOf(s.pagesRoot, modulePath); ok {
		return page.Identity(pathname)
	}
	return filepath.Clean(modulePath)
}

// Spawn starts an isolated build of the definition at modulePath and returns
// without waiting for it. When the page is already building, the request is
// folded into one follow-up build and the running handle is returned. The
// child's outcome never surfaces as an error here.
func (s *Spawner) Spawn(ctx context.Context, modulePath string) (*Handle, error) {
	if modulePath == "" {
		return nil, foundationerrors.ValidationError("empty page definition path").Build()
	}
	abs, err := filepath.Abs(modulePath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryIsolation, "resolve page definition").Build()
	}
	key := s.PageOf(abs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.registry[key]; ok {
		if !e.pending {
			e.pending = true
			s.recorder.IncCoalesced()
			s.logger.Debug("Page already building; queued follow-up build", logfields.Page(key))
		}
		return e.handle, nil
	}

	h := s.newHandle(ctx, key, abs)
	if len(s.registry) == 0 {
		s.idle = make(chan struct{})
	}
	s.registry[key] = &entry{handle: h}
	s.recorder.SetBuildsInFlight(len(s.registry))
	go s.run(ctx, h)
	return h, nil
}

// SpawnFunc adapts Spawn for the tree walker.
func (s *Spawner) SpawnFunc() aggregate.SpawnFunc {
	return func(ctx context.Context, definitionPath string) error {
		_, err := s.Spawn(ctx, definitionPath)
		return err
	}
}

// Cancel stops the in-flight build of a page and drops its follow-up. It
// reports whether a build was running.
func (s *Spawner) Cancel(pageName string) bool {
	key := page.Identity(pageName)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.registry[key]
	if !ok {
		return false
	}
	e.pending = false
	e.handle.cancel()
	return true
}

// InFlight returns the pages currently building.
func (s *Spawner) InFlight() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.registry))
	for k := range s.registry {
		out = append(out, k)
	}
	return out
}

// Wait blocks until no build is in flight. With WithCollectOutcomes it returns
// the outcomes collected since the previous Wait, in completion order;
// otherwise the result is always empty.
func (s *Spawner) Wait(ctx context.Context) ([]Outcome, error) {
	for {
		s.mu.Lock()
		if len(s.registry) == 0 {
			out := s.outcomes
			s.outcomes = nil
			s.mu.Unlock()
			return out, nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Spawner) newHandle(parent context.Context, key, modulePath string) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		ID:         uuid.NewString(),
		Page:       key,
		ModulePath: modulePath,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (s *Spawner) run(parent context.Context, h *Handle) {
	for {
		h.outcome = s.execute(h.ctx, h)
		h.cancel()

		s.mu.Lock()
		if s.collect {
			s.outcomes = append(s.outcomes, h.outcome)
		}
		e := s.registry[h.Page]
		if e.pending && parent.Err() == nil {
			e.pending = false
			next := s.newHandle(parent, h.Page, h.ModulePath)
			e.handle = next
			s.mu.Unlock()
			close(h.done)
			h = next
			continue
		}
		delete(s.registry, h.Page)
		s.recorder.SetBuildsInFlight(len(s.registry))
		if len(s.registry) == 0 {
			close(s.idle)
		}
		s.mu.Unlock()
		close(h.done)
		return
	}
}

func (s *Spawner) execute(ctx context.Context, h *Handle) Outcome {
	out := Outcome{BuildID: h.ID, Page: h.Page, ModulePath: h.ModulePath}
	start := time.Now()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			out.Canceled = true
			out.ExitCode = -1
			out.Err = err
			s.finish(&out, start)
			return out
		}
		defer s.sem.Release(1)
	}

	s.emit(Event{Kind: EventStart, BuildID: h.ID, Page: h.Page, ModulePath: h.ModulePath})

	proc, err := s.launcher.Launch(ctx, h.ModulePath)
	if err != nil {
		out.ExitCode = -1
		out.Err = foundationerrors.IsolationError("failed to launch page build").
			WithContext("page", h.Page).
			WithCause(err).
			Build()
		out.Duration = time.Since(start)
		s.emit(Event{Kind: EventFailure, BuildID: h.ID, Page: h.Page, ModulePath: h.ModulePath, ExitCode: -1, Err: out.Err, Duration: out.Duration})
		s.finish(&out, start)
		return out
	}

	code, err := proc.Wait()
	out.ExitCode = code
	out.Duration = time.Since(start)
	if errors.Is(ctx.Err(), context.Canceled) {
		out.Canceled = true
	}
	if err != nil {
		out.Err = foundationerrors.IsolationError("page build did not report an exit code").
			WithContext("page", h.Page).
			WithCause(err).
			Build()
	}
	if code != 0 || err != nil {
		s.emit(Event{Kind: EventFailure, BuildID: h.ID, Page: h.Page, ModulePath: h.ModulePath, ExitCode: code, Err: out.Err, Duration: out.Duration})
	}
	s.emit(Event{Kind: EventExit, BuildID: h.ID, Page: h.Page, ModulePath: h.ModulePath, ExitCode: code, Err: out.Err, Duration: out.Duration})
	s.finish(&out, start)
	return out
}

func (s *Spawner) finish(out *Outcome, start time.Time) {
	out.Duration = time.Since(start)
	result := metrics.ResultSuccess
	switch {
	case out.Canceled:
		result = metrics.ResultCanceled
	case !out.Success():
		result = metrics.ResultFailed
	}
	s.recorder.IncBuildResult(result)
	s.recorder.ObserveBuildDuration(out.Duration, result)
}

func (s *Spawner) emit(e Event) {
	e.Time = time.Now()
	for _, o := range s.observers {
		o.Observe(e)
	}
}
