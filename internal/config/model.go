package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Pipeline is the unified representation of a pipeline definition.
type Pipeline struct {
	// Params are the lowest-precedence parameter defaults.
	Params map[string]string
	// Toolchain maps command keys to command templates.
	Toolchain map[string]hcl.Expression
	Clean     *Clean
	Bundle    *Bundle
	// Stages keep their declaration order.
	Stages []*Stage
}

// Stage is the format-agnostic representation of a `stage` block.
type Stage struct {
	Name        string
	Description string
	DependsOn   []string
	// Fatal is nil when the definition leaves it unset.
	Fatal    *bool
	Requires []string
	// Action names a built-in action. It is mutually exclusive with Run.
	Action string
	// Run is a shell command template, nil when unset.
	Run hcl.Expression
}

// IsFatal reports whether a failure of s halts the pipeline. Stages are
// fatal unless declared otherwise.
func (s *Stage) IsFatal() bool {
	return s.Fatal == nil || *s.Fatal
}

// Clean selects what the clean action removes. Entries are templates so they
// can refer to parameters such as the module name.
type Clean struct {
	Paths    []hcl.Expression
	Patterns []hcl.Expression
	Skip     []hcl.Expression
}

// Bundle is the workflow bundle manifest.
type Bundle struct {
	Root   string
	Output string
	// UploadURL is a template, nil when unset.
	UploadURL hcl.Expression
	Entries   []*BundleEntry
}

// BundleEntry is one manifest item.
type BundleEntry struct {
	Path string
	Base string
}
