package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/shipgrid/internal/params"
)

// Builtin is a named Go action that stages can refer to with `action`.
type Builtin struct {
	Name        string
	Description string
	// Requires names parameters checked before the invocation starts.
	Requires []string
	Run      func(ctx context.Context, b *Binding, p *params.Set) error
}

// Registry maps action names to built-in implementations.
type Registry struct {
	builtins map[string]*Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]*Builtin)}
}

// Register adds a built-in. Registering the same name twice is a programming
// error.
func (r *Registry) Register(b *Builtin) {
	if _, exists := r.builtins[b.Name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", b.Name))
	}
	slog.Debug("Registering built-in action.", "name", b.Name)
	r.builtins[b.Name] = b
}

// Lookup returns the built-in with the given name.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.builtins[name]
	return b, ok
}

// Names returns every registered action name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builtins))
	for n := range r.builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry holding every built-in action.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, b := range builtins() {
		r.Register(b)
	}
	return r
}
