package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/vk/shipgrid/internal/bundle"
	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/notify"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/pipeline"
	"github.com/vk/shipgrid/internal/shell"
	"github.com/vk/shipgrid/internal/stage"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	errW     io.Writer
	logger   *slog.Logger
	config   *Config
	pipeline *config.Pipeline
	params   *params.Set
	stages   *stage.Pipeline
}

// Option customizes NewApp, mostly for tests.
type Option func(*options)

type options struct {
	resolver *params.Resolver
	caps     func(caps *pipeline.Capabilities)
}

// WithResolver replaces the environment-backed parameter resolver.
func WithResolver(r *params.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithCapabilities lets the caller adjust the wired capabilities.
func WithCapabilities(fn func(caps *pipeline.Capabilities)) Option {
	return func(o *options) { o.caps = fn }
}

// NewApp is the constructor for the main application. Operation output goes
// to outW; logs and stage output go to errW.
func NewApp(outW, errW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	o := &options{resolver: params.NewResolver()}
	for _, opt := range opts {
		opt(o)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loadPipeline(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	set := o.resolver.Resolve(model.Params, cfg.Overrides)
	logger.Debug("Parameters resolved.", "params", set.Redacted())

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("invalid workdir: %w", err)
	}

	tc := shell.New(shell.NewRunner(workDir), model.Toolchain, set)
	caps := pipeline.Capabilities{
		Compiler:   tc,
		Tests:      tc,
		Packager:   tc,
		Registry:   tc,
		Tags:       tc,
		Containers: tc,
		Notifier:   notify.New(0),
		Shell:      tc,
		Bundler:    bundle.New(workDir),
		Dir:        workDir,
	}
	if o.caps != nil {
		o.caps(&caps)
	}

	stages, err := pipeline.NewBuilder(caps).Build(model)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	logger.Debug("Pipeline built.", "stages", len(stages.Names()), "toolchain", tc.Keys())

	return &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		config:   cfg,
		pipeline: model,
		params:   set,
		stages:   stages,
	}, nil
}

// Stages returns the built pipeline. This is primarily for testing.
func (a *App) Stages() *stage.Pipeline {
	return a.stages
}
