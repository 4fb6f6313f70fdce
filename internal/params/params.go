// Package params holds the immutable parameter set that every stage of a
// pipeline run reads from. Values are resolved once per invocation and never
// change afterwards.
package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Well-known parameter names.
const (
	Version     = "version"
	Module      = "module"
	Tests       = "tests"
	Repository  = "repository"
	Description = "description"
	Token       = "token"
	Branch      = "branch"
	InstallArgs = "install_args"
	PytestOpts  = "pytest_opts"
	Remote      = "remote"
	APIURL      = "api_url"
	DistDir     = "dist_dir"
	ImageFile   = "image_file"
)

// Set is a read-only mapping from parameter name to value.
type Set struct {
	values map[string]string
}

// New returns a Set holding a private copy of values.
func New(values map[string]string) *Set {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Set{values: cp}
}

// Get returns the value for name and whether it was set at all.
func (s *Set) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Value returns the value for name, or "" when absent.
func (s *Set) Value(name string) string {
	return s.values[name]
}

// Names returns all parameter names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Require returns a *MissingError naming every parameter that is absent or
// empty. Names are reported once each, in sorted order.
func (s *Set) Require(names ...string) error {
	seen := make(map[string]struct{}, len(names))
	var missing []string
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if strings.TrimSpace(s.values[n]) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &MissingError{Names: missing}
}

// Redacted returns a copy of the values with the token masked, for logging.
func (s *Set) Redacted() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		if k == Token && v != "" {
			v = "***"
		}
		out[k] = v
	}
	return out
}

// EvalContext exposes the set to HCL templates as `param.<name>`, along with
// a small library of string functions.
func (s *Set) EvalContext() *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(s.values))
	for k, v := range s.values {
		vals[k] = cty.StringVal(v)
	}
	obj := cty.EmptyObjectVal
	if len(vals) > 0 {
		obj = cty.ObjectVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"param": obj},
		Functions: Functions(),
	}
}

// Functions returns the function table available to command templates.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"join":      stdlib.JoinFunc,
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"format":    stdlib.FormatFunc,
		"replace":   stdlib.ReplaceFunc,
		"quote":     QuoteFunc,
	}
}

// QuoteFunc renders its argument as a single sh word.
var QuoteFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(ShellQuote(args[0].AsString())), nil
	},
})

// ShellQuote wraps s in single quotes, escaping any it already contains.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// MissingError reports mandatory parameters that were not supplied.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("missing required parameter %q", e.Names[0])
	}
	return fmt.Sprintf("missing required parameters: %s", strings.Join(e.Names, ", "))
}
