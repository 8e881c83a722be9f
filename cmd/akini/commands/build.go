package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"git.home.luguber.info/inful/akini/internal/compiler"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/isolate"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	JSON bool `name:"json" help:"Print the build summary as JSON"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	h, cfg, err := loadProject(g, root, root.Dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newBuildEnv(g, h, cfg, nil, true)
	if err != nil {
		return err
	}
	defer env.Close()

	if !b.JSON {
		fmt.Printf("Building %s\n", h.Pages())
	}
	if err := compiler.FullBuild(ctx, h, env.spawner.SpawnFunc()); err != nil {
		return err
	}
	outcomes, err := env.spawner.Wait(ctx)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "build interrupted").Build()
	}

	summary := summarize(outcomes)
	if b.JSON {
		if err := writeJSON(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		printSummary(os.Stdout, summary)
	}
	if summary.Failed > 0 {
		return foundationerrors.BuildError(fmt.Sprintf("%d of %d pages failed", summary.Failed, summary.Total)).
			WithContext("failed", summary.FailedPages).
			Build()
	}
	return nil
}

// BuildSummary aggregates the outcomes of one full build.
type BuildSummary struct {
	Total       int      `json:"total"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	FailedPages []string `json:"failed_pages,omitempty"`
}

func summarize(outcomes []isolate.Outcome) BuildSummary {
	var s BuildSummary
	for _, o := range outcomes {
		s.Total++
		if o.Success() {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.FailedPages = append(s.FailedPages, o.Page)
	}
	sort.Strings(s.FailedPages)
	return s
}

func printSummary(w io.Writer, s BuildSummary) {
	if s.Total == 0 {
		_, _ = fmt.Fprintln(w, "No pages found")
		return
	}
	_, _ = fmt.Fprintf(w, "Built %d of %d pages\n", s.Succeeded, s.Total)
	for _, p := range s.FailedPages {
		_, _ = fmt.Fprintf(w, "  failed: %s\n", p)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
