// Package yamlconf loads pipeline definitions written in YAML. String values
// that act as command templates are parsed with HCL template syntax, so
// `${param.version}` works the same as in .hcl files.
package yamlconf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

type document struct {
	Params    map[string]string    `yaml:"params"`
	Toolchain map[string]*template `yaml:"toolchain"`
	Clean     *cleanDoc            `yaml:"clean"`
	Bundle    *bundleDoc           `yaml:"bundle"`
	Stages    []*stageDoc          `yaml:"stages"`
}

type stageDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	DependsOn   []string  `yaml:"depends_on"`
	Fatal       *bool     `yaml:"fatal"`
	Requires    []string  `yaml:"requires"`
	Action      string    `yaml:"action"`
	Run         *template `yaml:"run"`
}

type cleanDoc struct {
	Paths    []*template `yaml:"paths"`
	Patterns []*template `yaml:"patterns"`
	Skip     []*template `yaml:"skip"`
}

type bundleDoc struct {
	Root      string     `yaml:"root"`
	Output    string     `yaml:"output"`
	UploadURL *template  `yaml:"upload_url"`
	Entries   []entryDoc `yaml:"entries"`
}

type entryDoc struct {
	Path string `yaml:"path"`
	Base string `yaml:"base"`
}

// template is a YAML scalar parsed as an HCL template.
type template struct {
	expr hcl.Expression
}

func (t *template) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a string template", n.Line)
	}
	start := hcl.Pos{Line: n.Line, Column: n.Column}
	expr, diags := hclsyntax.ParseTemplate([]byte(n.Value), "", start)
	if diags.HasErrors() {
		return fmt.Errorf("line %d: invalid template %q: %w", n.Line, n.Value, diags)
	}
	t.expr = expr
	return nil
}

func exprs(ts []*template) []hcl.Expression {
	if len(ts) == 0 {
		return nil
	}
	out := make([]hcl.Expression, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.expr)
	}
	return out
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads each file and merges them in order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Pipeline, error) {
	files, err := fsutil.FindAll(paths, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("yamlconf: %w", err)
	}

	model := &config.Pipeline{}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("yamlconf: read %s: %w", path, err)
		}
		part, err := l.Parse(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("yamlconf: %s: %w", path, err)
		}
		if err := config.Merge(model, part); err != nil {
			return nil, fmt.Errorf("yamlconf: %s: %w", path, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("YAML loading complete.", "files", len(files), "stages", len(model.Stages))
	return model, nil
}

// Parse decodes one YAML document.
func (l *Loader) Parse(_ context.Context, data []byte) (*config.Pipeline, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("pipeline definition is empty")
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}

	model := &config.Pipeline{
		Params:    doc.Params,
		Toolchain: make(map[string]hcl.Expression, len(doc.Toolchain)),
	}
	for k, t := range doc.Toolchain {
		if t == nil {
			return nil, fmt.Errorf("toolchain command %q is empty", k)
		}
		model.Toolchain[k] = t.expr
	}

	if doc.Clean != nil {
		model.Clean = &config.Clean{
			Paths:    exprs(doc.Clean.Paths),
			Patterns: exprs(doc.Clean.Patterns),
			Skip:     exprs(doc.Clean.Skip),
		}
	}

	if b := doc.Bundle; b != nil {
		model.Bundle = &config.Bundle{Root: b.Root, Output: b.Output}
		if b.UploadURL != nil {
			model.Bundle.UploadURL = b.UploadURL.expr
		}
		for _, e := range b.Entries {
			model.Bundle.Entries = append(model.Bundle.Entries, &config.BundleEntry{Path: e.Path, Base: e.Base})
		}
	}

	for i, s := range doc.Stages {
		if s == nil || s.Name == "" {
			return nil, fmt.Errorf("stage #%d has no name", i+1)
		}
		st := &config.Stage{
			Name:        s.Name,
			Description: s.Description,
			DependsOn:   s.DependsOn,
			Fatal:       s.Fatal,
			Requires:    s.Requires,
			Action:      s.Action,
		}
		if s.Run != nil {
			st.Run = s.Run.expr
		}
		model.Stages = append(model.Stages, st)
	}
	return model, nil
}
