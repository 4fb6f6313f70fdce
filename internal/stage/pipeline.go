package stage

import (
	"errors"
	"fmt"

	"github.com/vk/shipgrid/internal/dag"
)

// Pipeline is an immutable, validated collection of stages.
type Pipeline struct {
	graph  *dag.Graph
	stages map[string]*Stage
}

// NewPipeline validates the stages and builds their dependency graph. It
// rejects duplicate names, references to undeclared stages, and cycles.
func NewPipeline(stages ...*Stage) (*Pipeline, error) {
	p := &Pipeline{
		graph:  dag.New(),
		stages: make(map[string]*Stage, len(stages)),
	}

	for _, s := range stages {
		if s.Name == "" {
			return nil, errors.New("stage with empty name")
		}
		if _, dup := p.stages[s.Name]; dup {
			return nil, fmt.Errorf("stage %q declared more than once", s.Name)
		}
		p.stages[s.Name] = s
		p.graph.AddNode(s.Name)
	}

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if !p.graph.Has(dep) {
				return nil, fmt.Errorf("stage %q depends on undeclared stage %q", s.Name, dep)
			}
			if err := p.graph.AddEdge(dep, s.Name); err != nil {
				return nil, fmt.Errorf("stage %q: %w", s.Name, err)
			}
		}
	}

	if err := p.graph.DetectCycles(); err != nil {
		return nil, err
	}
	return p, nil
}

// Stage returns the stage with the given name.
func (p *Pipeline) Stage(name string) (*Stage, bool) {
	s, ok := p.stages[name]
	return s, ok
}

// Names returns every stage name in declaration order.
func (p *Pipeline) Names() []string {
	return p.graph.Nodes()
}

// Plan returns the stages an invocation of name would execute, in order,
// assuming every stage succeeds.
func (p *Pipeline) Plan(name string) ([]string, error) {
	order, err := p.graph.Closure(name)
	if err != nil {
		if errors.Is(err, dag.ErrUnknownNode) {
			return nil, &UnknownStageError{Name: name}
		}
		return nil, err
	}
	return order, nil
}

// Requirements returns every parameter the invocation of name needs, with
// duplicates removed, in first-seen order.
func (p *Pipeline) Requirements(name string) ([]string, error) {
	order, err := p.Plan(name)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]bool)
	for _, id := range order {
		for _, req := range p.stages[id].requirements() {
			if !seen[req] {
				seen[req] = true
				out = append(out, req)
			}
		}
	}
	return out, nil
}
