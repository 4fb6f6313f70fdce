package stage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/params"
)

// Observer is notified as stages start and finish.
type Observer interface {
	StageStarted(ctx context.Context, s *Stage)
	StageFinished(ctx context.Context, r *Result)
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver registers an observer for stage lifecycle events.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithLiveOutput mirrors every stage's output to w while it is captured.
func WithLiveOutput(w io.Writer) Option {
	return func(e *Executor) { e.live = w }
}

// Executor runs stages of a Pipeline with a fixed parameter set.
type Executor struct {
	pipeline *Pipeline
	params   *params.Set
	observer Observer
	live     io.Writer
	now      func() time.Time
}

// NewExecutor creates an Executor for the pipeline.
func NewExecutor(p *Pipeline, set *params.Set, opts ...Option) *Executor {
	e := &Executor{
		pipeline: p,
		params:   set,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the state of one invocation.
type run struct {
	report *Report
	done   map[string]*Result
}

// Run executes the named stage after its transitive prerequisites. Every
// parameter the invocation needs is checked first, so a missing value fails
// before any action runs. The returned Report is never nil when the stage
// exists, even on error.
func (e *Executor) Run(ctx context.Context, name string) (*Report, error) {
	logger := ctxlog.FromContext(ctx).With("target", name)

	reqs, err := e.pipeline.Requirements(name)
	if err != nil {
		return nil, err
	}
	report := &Report{Target: name}
	if err := e.params.Require(reqs...); err != nil {
		logger.Error("Invocation rejected before any stage ran.", "error", err)
		return report, err
	}

	r := &run{report: report, done: make(map[string]*Result)}
	logger.Debug("Invocation started.", "requires", reqs)
	if err := e.visit(ctx, r, name); err != nil {
		return report, err
	}
	logger.Debug("Invocation finished.", "executed", report.Executed())
	return report, nil
}

// visit runs the stage's prerequisites in declared order, then the stage
// itself. A non-nil return means a fatal failure and halts the walk.
func (e *Executor) visit(ctx context.Context, r *run, name string) error {
	if _, ok := r.done[name]; ok {
		return nil
	}
	s, _ := e.pipeline.Stage(name)

	for _, dep := range s.DependsOn {
		if err := e.visit(ctx, r, dep); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	res := e.execute(ctx, s)
	r.done[name] = res
	r.report.Results = append(r.report.Results, res)

	if res.Failed() && s.Fatal {
		return &StageError{Stage: s.Name, Output: res.Output, Err: res.Err}
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, s *Stage) *Result {
	logger := ctxlog.FromContext(ctx).With("stage", s.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if e.observer != nil {
		e.observer.StageStarted(ctx, s)
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if e.live != nil {
		out = io.MultiWriter(&buf, e.live)
	}

	start := e.now()
	var err error
	if s.Action != nil {
		logger.Info("▶️ Starting stage")
		err = s.Action.Run(WithOutput(ctx, out), e.params)
	}

	res := &Result{
		Stage:    s.Name,
		Status:   StatusSucceeded,
		Fatal:    s.Fatal,
		Output:   buf.String(),
		Duration: e.now().Sub(start),
	}
	switch {
	case err != nil && s.Fatal:
		res.Status, res.Err, res.ExitCode = StatusFailed, err, exitCodeOf(err)
		logger.Error("❌ Stage failed", "error", err, "exit_code", res.ExitCode)
	case err != nil:
		res.Status, res.Err, res.ExitCode = StatusFailed, err, exitCodeOf(err)
		logger.Warn("Stage failed but is not fatal, continuing.", "error", err, "exit_code", res.ExitCode)
	case s.Action != nil:
		logger.Info("✅ Finished stage", "duration", res.Duration)
	}

	if e.observer != nil {
		e.observer.StageFinished(ctx, res)
	}
	return res
}
