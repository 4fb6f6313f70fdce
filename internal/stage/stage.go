package stage

import (
	"context"

	"github.com/vk/shipgrid/internal/params"
)

// Action is the work a stage performs once its prerequisites are satisfied.
type Action interface {
	Run(ctx context.Context, p *params.Set) error
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func(ctx context.Context, p *params.Set) error

// Run calls f.
func (f ActionFunc) Run(ctx context.Context, p *params.Set) error { return f(ctx, p) }

// Requirer is implemented by actions that need particular parameters. The
// executor checks them before any stage of the invocation runs.
type Requirer interface {
	Requires() []string
}

// Stage is one named unit of work. It is built once when the pipeline is
// defined and never mutated afterwards.
type Stage struct {
	Name        string
	Description string
	// DependsOn lists prerequisite stages in the order they are visited.
	DependsOn []string
	// Fatal stops the whole invocation when the stage fails.
	Fatal bool
	// Requires names parameters that must be present for the stage to run.
	Requires []string
	// Action is nil for pure composition stages such as "release".
	Action Action
}

// requirements merges the stage's declared parameters with its action's.
func (s *Stage) requirements() []string {
	out := append([]string(nil), s.Requires...)
	if r, ok := s.Action.(Requirer); ok {
		out = append(out, r.Requires()...)
	}
	return out
}
