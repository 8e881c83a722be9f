package journal

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/akini/internal/isolate"
	"git.home.luguber.info/inful/akini/internal/logfields"
)

// Observer records isolate lifecycle events in a Store.
type Observer struct {
	store  Store
	logger *slog.Logger
}

// NewObserver returns an isolate.Observer writing to store.
func NewObserver(store Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{store: store, logger: logger}
}

func (o *Observer) Observe(e isolate.Event) {
	entry := Entry{
		BuildID:    e.BuildID,
		Kind:       string(e.Kind),
		Page:       e.Page,
		ModulePath: e.ModulePath,
		ExitCode:   e.ExitCode,
		Time:       e.Time,
		Duration:   e.Duration,
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.Append(ctx, entry); err != nil {
		o.logger.Warn("Failed to journal build event", logfields.BuildID(e.BuildID), logfields.Error(err))
	}
}
