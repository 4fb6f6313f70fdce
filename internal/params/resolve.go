package params

import (
	"fmt"
	"os"
	"strings"
)

// EnvPrefix is prepended to the upper-cased parameter name to form the
// environment variable that supplies it, e.g. SHIPGRID_VERSION.
const EnvPrefix = "SHIPGRID_"

// Resolver layers parameter sources. Later layers win: pipeline defaults,
// then environment, then explicit overrides.
type Resolver struct {
	Prefix  string
	Environ func() []string
}

// NewResolver returns a Resolver reading the process environment.
func NewResolver() *Resolver {
	return &Resolver{Prefix: EnvPrefix, Environ: os.Environ}
}

// Resolve builds the Set for one invocation.
func (r *Resolver) Resolve(defaults, overrides map[string]string) *Set {
	values := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		values[k] = v
	}
	for k, v := range r.fromEnv() {
		values[k] = v
	}
	for k, v := range overrides {
		values[k] = v
	}
	return New(values)
}

func (r *Resolver) fromEnv() map[string]string {
	out := make(map[string]string)
	if r.Environ == nil {
		return out
	}
	for _, e := range r.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], r.Prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(pair[0], r.Prefix))
		if name == "" {
			continue
		}
		out[name] = pair[1]
	}
	return out
}

// ParseAssignments turns `name=value` strings into a map. The value may be
// empty but the name may not.
func ParseAssignments(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", item)
		}
		out[name] = value
	}
	return out, nil
}
