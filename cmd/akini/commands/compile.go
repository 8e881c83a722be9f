package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/akini/internal/compiler"
	"git.home.luguber.info/inful/akini/internal/logfields"
)

// CompileCmd implements the 'compile' command. It is also what the isolated
// child processes of build and watch run.
type CompileCmd struct {
	Definition string `name:"definition" help:"Path to the page.yaml to compile" required:"" type:"path"`
	Isolated   bool   `name:"isolated" help:"Ignore the building flag of the definition (set by parent builds)"`
	JSON       bool   `name:"json" help:"Print the compile result as JSON"`
}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	h, cfg, err := loadProject(g, root, filepath.Dir(c.Definition))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []compiler.Option{compiler.WithLogger(g.Logger)}
	var env *buildEnv
	if !c.Isolated {
		env, err = newBuildEnv(g, h, cfg, nil, true)
		if err != nil {
			return err
		}
		defer env.Close()
		opts = append(opts, compiler.WithSpawn(env.spawner.SpawnFunc()))
	}

	res, compileErr := compiler.New(opts...).CompileFile(ctx, h, c.Definition)
	if c.JSON {
		if err := writeJSON(os.Stdout, res); err != nil {
			return err
		}
	} else if compileErr == nil && !c.Isolated {
		fmt.Printf("Compiled %s into %s\n", res.Page, res.OutputDir)
	}

	if env != nil {
		outcomes, err := env.spawner.Wait(ctx)
		if err != nil {
			g.Logger.Warn("Stopped waiting for spawned page builds", logfields.Error(err))
		}
		if s := summarize(outcomes); s.Total > 0 && !c.JSON {
			printSummary(os.Stdout, s)
		}
	}
	return compileErr
}
