package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/akini/internal/config"
	"git.home.luguber.info/inful/akini/internal/home"
	"git.home.luguber.info/inful/akini/internal/isolate"
	"git.home.luguber.info/inful/akini/internal/journal"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/metrics"
	"git.home.luguber.info/inful/akini/internal/notify"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Dir       string           `short:"C" help:"Directory to start searching for akini.yaml from" default:"." type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json); defaults to the manifest setting"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build every page under pages/ in isolated processes"`
	Compile CompileCmd `cmd:"" help:"Compile a single page definition"`
	Watch   WatchCmd   `cmd:"" help:"Build all pages, then rebuild pages as their files change"`
	Pages   PagesCmd   `cmd:"" help:"Print the page tree"`
	History HistoryCmd `cmd:"" help:"Show recorded builds from the journal"`
	Init    InitCmd    `cmd:"" help:"Scaffold a new project"`
}

// AfterApply runs after flag parsing; setup logging once. The manifest may
// refine it later through configureLogging.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(parseLogLevel(c.Verbose, ""), config.NormalizeLogFormat(c.LogFormat)))
	return nil
}

// parseLogLevel gives -v precedence over AKINI_LOG_LEVEL, which in turn
// overrides the manifest level.
func parseLogLevel(verbose bool, manifest config.LogLevel) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv("AKINI_LOG_LEVEL"); env != "" {
		return config.NormalizeLogLevel(env).SlogLevel()
	}
	if manifest != "" {
		return manifest.SlogLevel()
	}
	return slog.LevelInfo
}

func newLogger(level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func configureLogging(g *Global, root *CLI, cfg *config.Config) {
	format := cfg.Logging.Format
	if root.LogFormat != "" {
		format = config.NormalizeLogFormat(root.LogFormat)
	}
	g.Logger = newLogger(parseLogLevel(root.Verbose, cfg.Logging.Level), format)
	slog.SetDefault(g.Logger)
}

// loadProject resolves the project root from startDir and loads its manifest.
func loadProject(g *Global, root *CLI, startDir string) (home.Home, *config.Config, error) {
	h, err := home.NewResolver().Resolve(startDir)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(string(h))
	if err != nil {
		return "", nil, err
	}
	configureLogging(g, root, cfg)
	g.Logger.Debug("Resolved project", logfields.Home(string(h)))
	return h, cfg, nil
}

// buildEnv holds the spawner and the sinks attached to it.
type buildEnv struct {
	spawner *isolate.Spawner
	closers []func()
}

func (e *buildEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// newBuildEnv wires the isolated build spawner with the journal and NATS
// observers configured in the manifest. Sinks that fail to open are logged
// and skipped; they never prevent a build. collect keeps outcomes for Wait and
// is only set by commands that wait once and exit.
func newBuildEnv(g *Global, h home.Home, cfg *config.Config, recorder metrics.Recorder, collect bool) (*buildEnv, error) {
	launcher, err := isolate.NewExecLauncher(string(h), cfg.Isolation.Command)
	if err != nil {
		return nil, err
	}

	env := &buildEnv{}
	opts := []isolate.Option{
		isolate.WithLogger(g.Logger),
		isolate.WithMaxConcurrent(cfg.Isolation.MaxConcurrent),
	}
	if recorder != nil {
		opts = append(opts, isolate.WithRecorder(recorder))
	}
	if collect {
		opts = append(opts, isolate.WithCollectOutcomes())
	}

	if cfg.Journal.Path != "" {
		path := config.ResolvePath(string(h), cfg.Journal.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			g.Logger.Warn("Build journal disabled", logfields.Error(err))
		} else if store, err := journal.NewSQLiteStore(path); err != nil {
			g.Logger.Warn("Build journal disabled", logfields.Error(err))
		} else {
			opts = append(opts, isolate.WithObserver(journal.NewObserver(store, g.Logger)))
			env.closers = append(env.closers, func() { _ = store.Close() })
		}
	}

	if cfg.Events.NATSURL != "" {
		pub, err := notify.Connect(cfg.Events.NATSURL, cfg.Events.Subject, g.Logger)
		if err != nil {
			g.Logger.Warn("Build event publishing disabled", logfields.Error(err))
		} else {
			opts = append(opts, isolate.WithObserver(pub))
			env.closers = append(env.closers, pub.Close)
		}
	}

	env.spawner = isolate.NewSpawner(h.Pages(), launcher, opts...)
	return env, nil
}
