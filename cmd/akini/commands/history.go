package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/akini/internal/config"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/journal"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Since   time.Duration `help:"Only show builds started within this window" default:"24h"`
	BuildID string        `name:"build-id" help:"Show a single build"`
	JSON    bool          `name:"json" help:"Print builds as JSON"`
}

func (c *HistoryCmd) Run(g *Global, root *CLI) error {
	h, cfg, err := loadProject(g, root, root.Dir)
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return foundationerrors.ConfigError("build journal is not configured").
			WithContext("hint", "set journal.path in "+config.ManifestFile).
			Build()
	}

	store, err := journal.NewSQLiteStore(config.ResolvePath(string(h), cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := c.load(context.Background(), store, time.Now())
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(os.Stdout, builds)
	}
	return printHistory(os.Stdout, builds)
}

func (c *HistoryCmd) load(ctx context.Context, store journal.Store, now time.Time) ([]journal.BuildSummary, error) {
	var (
		entries []journal.Entry
		err     error
	)
	if c.BuildID != "" {
		entries, err = store.GetByBuildID(ctx, c.BuildID)
	} else {
		entries, err = store.GetRange(ctx, now.Add(-c.Since), now)
	}
	if err != nil {
		return nil, err
	}
	return journal.Summarize(entries), nil
}

func printHistory(w io.Writer, builds []journal.BuildSummary) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tPAGE\tSTATUS\tEXIT\tDURATION\tBUILD")
	for _, b := range builds {
		duration := "-"
		if b.FinishedAt != nil {
			duration = b.Duration.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime), b.Page, b.Status, b.ExitCode, duration, b.BuildID)
	}
	return tw.Flush()
}
