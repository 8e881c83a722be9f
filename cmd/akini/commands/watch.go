package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/akini/internal/compiler"
	"git.home.luguber.info/inful/akini/internal/config"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/metrics"
	"git.home.luguber.info/inful/akini/internal/scheduler"
	"git.home.luguber.info/inful/akini/internal/watch"
)

// shutdownGrace bounds how long watch waits for in-flight page builds on exit.
const shutdownGrace = 10 * time.Second

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Server      bool          `help:"Also watch the server directory and exit when it changes"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	FullRebuild time.Duration `name:"full-rebuild" help:"Periodically rebuild every page (e.g. 30m); 0 disables"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	h, cfg, err := loadProject(g, root, root.Dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	addr := w.MetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			if err := metrics.Serve(ctx, addr, cfg.Metrics.Path, reg); err != nil {
				g.Logger.Error("Metrics endpoint failed", logfields.Error(err))
			}
		}()
	}

	env, err := newBuildEnv(g, h, cfg, recorder, false)
	if err != nil {
		return err
	}
	defer env.Close()
	spawn := env.spawner.SpawnFunc()

	interval := w.FullRebuild
	if interval == 0 {
		interval = cfg.FullRebuildEvery()
	}
	if interval > 0 {
		sched, err := scheduler.New(g.Logger)
		if err != nil {
			return err
		}
		if _, err := sched.Every(ctx, "full-rebuild", interval, func(ctx context.Context) error {
			recorder.IncFullBuild()
			return compiler.FullBuild(ctx, h, spawn)
		}); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				g.Logger.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	opts := []watch.Option{
		watch.WithSearchDepth(cfg.Watch.SearchDepth),
		watch.WithRecorder(recorder),
		watch.WithLogger(g.Logger),
	}
	if w.Server || cfg.Watch.Server {
		opts = append(opts, watch.WithServerDir(config.ResolvePath(string(h), cfg.Watch.ServerDir)))
	}

	runErr := watch.New(h, spawn, opts...).Run(ctx)
	stop()
	drainBuilds(g, env)

	if errors.Is(runErr, watch.ErrServerChanged) {
		return nil
	}
	return runErr
}

// drainBuilds gives cancelled children a moment to exit so their lifecycle
// events still reach the journal.
func drainBuilds(g *Global, env *buildEnv) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if _, err := env.spawner.Wait(ctx); err != nil {
		g.Logger.Warn("Page builds still running at exit", logfields.Error(err))
	}
}
