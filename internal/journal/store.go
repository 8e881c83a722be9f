// Package journal persists build lifecycle events in SQLite so past builds can
// be listed with `akini history`.
package journal

import (
	"context"
	"time"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	ID         int64         `json:"id"`
	BuildID    string        `json:"build_id"`
	Kind       string        `json:"kind"`
	Page       string        `json:"page"`
	ModulePath string        `json:"module_path,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Error      string        `json:"error,omitempty"`
	Time       time.Time     `json:"time"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
}

// Store persists and retrieves entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	GetByBuildID(ctx context.Context, buildID string) ([]Entry, error)
	GetRange(ctx context.Context, start, end time.Time) ([]Entry, error)
	Close() error
}
