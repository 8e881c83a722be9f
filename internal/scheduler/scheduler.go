// Package scheduler runs periodic full rebuilds in watch mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/akini/internal/logfields"
)

// Task is a periodic job. Its error is logged; it does not stop the schedule.
type Task func(ctx context.Context) error

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a scheduler.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every schedules task at interval. Runs never overlap; a tick that arrives
// while the previous run is still going is skipped. It returns the job ID.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, task Task) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.run(ctx, name, task) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job %s: %w", name, err)
	}
	s.logger.Info("Scheduled periodic job", slog.String("job", name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.logger.Debug("Running scheduled job", slog.String("job", name))
	if err := task(ctx); err != nil {
		s.logger.Error("Scheduled job failed", slog.String("job", name), logfields.Error(err))
		return
	}
	s.logger.Debug("Scheduled job finished", slog.String("job", name),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
