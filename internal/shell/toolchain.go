package shell

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/toolchain"
	"github.com/zclconf/go-cty/cty"
)

// Command keys looked up in the pipeline's toolchain block.
const (
	CmdCompile       = "compile"
	CmdInstall       = "install"
	CmdSdist         = "sdist"
	CmdWheel         = "wheel"
	CmdRegister      = "register"
	CmdUpload        = "upload"
	CmdImageBuild    = "image_build"
	CmdImageTag      = "image_tag"
	CmdRegistryLogin = "registry_login"
	CmdImagePush     = "image_push"
	CmdTagList       = "tag_list"
	CmdTagCreate     = "tag_create"
	CmdTagPush       = "tag_push"
)

// Toolchain is the shell-backed implementation of every toolchain
// capability. It is built once per invocation with the resolved parameters.
type Toolchain struct {
	Runner   *Runner
	Commands map[string]hcl.Expression
	Params   *params.Set
}

var (
	_ toolchain.Compiler        = (*Toolchain)(nil)
	_ toolchain.TestRunner      = (*Toolchain)(nil)
	_ toolchain.Packager        = (*Toolchain)(nil)
	_ toolchain.RegistryClient  = (*Toolchain)(nil)
	_ toolchain.TagClient       = (*Toolchain)(nil)
	_ toolchain.ContainerClient = (*Toolchain)(nil)
	_ toolchain.Shell           = (*Toolchain)(nil)
)

// New returns a Toolchain.
func New(r *Runner, commands map[string]hcl.Expression, p *params.Set) *Toolchain {
	return &Toolchain{Runner: r, Commands: commands, Params: p}
}

// Keys returns the configured command keys in sorted order.
func (t *Toolchain) Keys() []string {
	keys := make([]string, 0, len(t.Commands))
	for k := range t.Commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *Toolchain) render(key string, p *params.Set, vars map[string]cty.Value) (string, error) {
	expr, ok := t.Commands[key]
	if !ok {
		return "", fmt.Errorf("no %q command configured in toolchain", key)
	}
	if p == nil {
		p = t.Params
	}
	if p == nil {
		p = params.New(nil)
	}
	cmd, err := Render(expr, withVars(p.EvalContext(), vars))
	if err != nil {
		return "", fmt.Errorf("render %q command: %w", key, err)
	}
	return cmd, nil
}

func (t *Toolchain) exec(ctx context.Context, key string, p *params.Set, vars map[string]cty.Value) error {
	cmd, err := t.render(key, p, vars)
	if err != nil {
		return err
	}
	return t.Runner.Exec(ctx, cmd)
}

// Run renders and executes a pass-through command template.
func (t *Toolchain) Run(ctx context.Context, p *params.Set, tmpl hcl.Expression) error {
	cmd, err := Render(tmpl, p.EvalContext())
	if err != nil {
		return fmt.Errorf("render command: %w", err)
	}
	return t.Runner.Exec(ctx, cmd)
}

// Compile builds native extensions in place.
func (t *Toolchain) Compile(ctx context.Context, p *params.Set) error {
	return t.exec(ctx, CmdCompile, p, nil)
}

// Install installs the package, passing install_args through.
func (t *Toolchain) Install(ctx context.Context, p *params.Set) error {
	return t.exec(ctx, CmdInstall, p, nil)
}

// RunTests runs the command whose key equals suite, e.g. "test" or "perftest".
func (t *Toolchain) RunTests(ctx context.Context, p *params.Set, suite string) error {
	return t.exec(ctx, suite, p, nil)
}
