// Package compiler compiles one page definition into its build artifacts and
// drives full builds of the pages tree.
package compiler

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/akini/internal/aggregate"
	"git.home.luguber.info/inful/akini/internal/assemble"
	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/home"
	"git.home.luguber.info/inful/akini/internal/logfields"
	"git.home.luguber.info/inful/akini/internal/page"
	"git.home.luguber.info/inful/akini/internal/workspace"
)

// Result describes one compile. It is what `akini compile --json` prints.
type Result struct {
	Page      string        `json:"page"`
	Pathname  string        `json:"pathname"`
	OutputDir string        `json:"output_dir,omitempty"`
	Files     []string      `json:"files,omitempty"`
	Bytes     int           `json:"bytes"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration_ns"`
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSpawn sets where page definitions found while building are handed off.
// Without it the building flag of a definition has no effect.
func WithSpawn(spawn aggregate.SpawnFunc) Option {
	return func(c *Compiler) { c.spawn = spawn }
}

// WithMinifier replaces the default minifier.
func WithMinifier(m assemble.Minifier) Option {
	return func(c *Compiler) { c.minifier = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// Compiler wires renderer, aggregator and assembler together.
type Compiler struct {
	spawn    aggregate.SpawnFunc
	minifier assemble.Minifier
	logger   *slog.Logger

	renderer   *page.Renderer
	aggregator *aggregate.Aggregator
	assembler  *assemble.Assembler
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.renderer = page.NewRenderer()
	c.aggregator = aggregate.New(c.spawn, c.logger)
	c.assembler = assemble.New(c.minifier)
	return c
}

// CompileFile loads the definition at path and compiles it.
func (c *Compiler) CompileFile(ctx context.Context, h home.Home, path string) (*Result, error) {
	def, err := page.LoadDefinition(path)
	if err != nil {
		res := &Result{Start: time.Now()}
		if pathname, ok := page.PathnameOf(h.Pages(), path); ok {
			res.Pathname = pathname
			res.Page = page.Identity(pathname)
		}
		return res.fail(err), err
	}
	return c.Compile(ctx, h, def)
}

// Compile builds the artifact of def and publishes it to build/<pathname>/.
// The returned Result is never nil; on failure it carries the error text and
// Success is false.
func (c *Compiler) Compile(ctx context.Context, h home.Home, def *page.Definition) (*Result, error) {
	res := &Result{Start: time.Now()}

	pathname, ok := page.PathnameOf(h.Pages(), def.Path)
	if !ok {
		err := foundationerrors.ValidationError("page definition is not inside the pages directory").
			WithContext("path", def.Path).
			WithContext("pages", h.Pages()).
			Build()
		return res.fail(err), err
	}
	res.Pathname = pathname
	res.Page = page.Identity(pathname)
	log := c.logger.With(logfields.Page(res.Page))

	req := page.Request{Pathname: pathname, Options: def.Options.WithDefaults(pathname)}

	components, err := c.renderer.Render(def)
	if err != nil {
		return res.fail(err), err
	}
	buffers, err := c.aggregator.Collect(ctx, h, req)
	if err != nil {
		return res.fail(err), err
	}
	artifact, err := c.assembler.Assemble(components, buffers, req.Options)
	if err != nil {
		return res.fail(err), err
	}

	outDir := filepath.Join(h.Build(), filepath.FromSlash(pathname))
	files, size, err := publish(h, outDir, artifact)
	if err != nil {
		return res.fail(err), err
	}

	res.OutputDir = outDir
	res.Files = files
	res.Bytes = size
	res.Success = true
	res.Duration = time.Since(res.Start)
	log.Info("Compiled page",
		logfields.Path(outDir),
		slog.Int("bytes", size),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

func (r *Result) fail(err error) *Result {
	r.Success = false
	r.Error = err.Error()
	r.Duration = time.Since(r.Start)
	return r
}

func publish(h home.Home, outDir string, artifact assemble.Artifact) ([]string, int, error) {
	ws := workspace.ForBuild(h.Build())
	if err := ws.Create(); err != nil {
		return nil, 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create staging workspace").Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()

	size := 0
	for name, content := range artifact.Files() {
		if err := ws.WriteFile(name, []byte(content)); err != nil {
			return nil, 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "stage artifact").Build()
		}
		size += len(content)
	}
	files, err := ws.Publish(outDir)
	if err != nil {
		return nil, 0, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "publish artifact").
			WithContext("path", outDir).
			Build()
	}
	return files, size, nil
}
