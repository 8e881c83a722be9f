package isolate

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/akini/internal/logfields"
)

// EventKind names a build lifecycle transition.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventFailure EventKind = "failure"
	EventExit    EventKind = "exit"
)

// Event is one lifecycle transition of an isolated build.
type Event struct {
	Kind       EventKind
	BuildID    string
	Page       string
	ModulePath string
	ExitCode   int
	Err        error
	Time       time.Time
	Duration   time.Duration
}

// Observer receives lifecycle events. Observe is called from build goroutines
// and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// LogObserver writes the console lines of the build lifecycle.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(e Event) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	switch e.Kind {
	case EventStart:
		log.Info("Building", logfields.Page(e.Page), logfields.BuildID(e.BuildID))
	case EventFailure:
		attrs := []any{logfields.Page(e.Page), logfields.BuildID(e.BuildID), logfields.ExitCode(e.ExitCode)}
		if e.Err != nil {
			attrs = append(attrs, logfields.Error(e.Err))
		}
		log.Error("FAILED", attrs...)
	case EventExit:
		log.Info("Process exited",
			logfields.Page(e.Page),
			logfields.BuildID(e.BuildID),
			logfields.ExitCode(e.ExitCode),
			logfields.DurationMS(float64(e.Duration.Microseconds())/1000))
	}
}
