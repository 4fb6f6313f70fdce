package pipeline

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/stage"
)

// boundAction runs a built-in against a shared Binding.
type boundAction struct {
	builtin *Builtin
	binding *Binding
}

func (a *boundAction) Run(ctx context.Context, p *params.Set) error {
	return a.builtin.Run(ctx, a.binding, p)
}

func (a *boundAction) Requires() []string { return a.builtin.Requires }

// shellAction runs a pass-through command template.
type shellAction struct {
	tmpl    hcl.Expression
	binding *Binding
}

func (a *shellAction) Run(ctx context.Context, p *params.Set) error {
	if a.binding.Shell == nil {
		return missing("shell")
	}
	return a.binding.Shell.Run(ctx, p, a.tmpl)
}

// Builder binds configuration to capabilities.
type Builder struct {
	Registry     *Registry
	Capabilities Capabilities
}

// NewBuilder returns a Builder using the default action registry.
func NewBuilder(caps Capabilities) *Builder {
	return &Builder{Registry: DefaultRegistry(), Capabilities: caps}
}

// Build validates cfg and returns the runnable pipeline. All stages share
// one Binding, so state such as built distributions flows between them.
func (b *Builder) Build(cfg *config.Pipeline) (*stage.Pipeline, error) {
	binding := &Binding{
		Capabilities: b.Capabilities,
		Clean:        cfg.Clean,
		Bundle:       cfg.Bundle,
	}

	stages := make([]*stage.Stage, 0, len(cfg.Stages))
	for _, def := range cfg.Stages {
		s := &stage.Stage{
			Name:        def.Name,
			Description: def.Description,
			DependsOn:   def.DependsOn,
			Fatal:       def.IsFatal(),
			Requires:    def.Requires,
		}

		switch {
		case def.Action != "" && def.Run != nil:
			return nil, fmt.Errorf("stage %q sets both action and run", def.Name)
		case def.Action != "":
			builtin, ok := b.Registry.Lookup(def.Action)
			if !ok {
				return nil, fmt.Errorf("stage %q uses unknown action %q", def.Name, def.Action)
			}
			s.Action = &boundAction{builtin: builtin, binding: binding}
			if s.Description == "" {
				s.Description = builtin.Description
			}
		case def.Run != nil:
			s.Action = &shellAction{tmpl: def.Run, binding: binding}
		}
		stages = append(stages, s)
	}

	return stage.NewPipeline(stages...)
}
