package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/toolchain"
	"github.com/zclconf/go-cty/cty"
)

// Register authenticates with the package registry and registers the
// project. The template sees the file paths as the list variable `artifacts`.
func (t *Toolchain) Register(ctx context.Context, p *params.Set, artifacts []toolchain.Artifact) error {
	if len(artifacts) == 0 {
		return errors.New("no artifacts to register")
	}
	return t.exec(ctx, CmdRegister, p, artifactVars(artifacts))
}

// Upload sends every artifact to the package registry in one command. The
// template sees the file paths as the list variable `artifacts`.
func (t *Toolchain) Upload(ctx context.Context, p *params.Set, artifacts []toolchain.Artifact) error {
	if len(artifacts) == 0 {
		return errors.New("no artifacts to upload")
	}
	return t.exec(ctx, CmdUpload, p, artifactVars(artifacts))
}

func artifactVars(artifacts []toolchain.Artifact) map[string]cty.Value {
	paths := make([]cty.Value, 0, len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, cty.StringVal(a.Path))
	}
	return map[string]cty.Value{"artifacts": cty.ListVal(paths)}
}

// TagExists lists tags matching name and reports whether any came back.
func (t *Toolchain) TagExists(ctx context.Context, name string) (bool, error) {
	cmd, err := t.render(CmdTagList, nil, map[string]cty.Value{"tag": cty.StringVal(name)})
	if err != nil {
		return false, err
	}
	out, err := t.Runner.Capture(ctx, cmd)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateTag creates the release tag at HEAD.
func (t *Toolchain) CreateTag(ctx context.Context, name string) error {
	return t.exec(ctx, CmdTagCreate, nil, map[string]cty.Value{"tag": cty.StringVal(name)})
}

// PushTags pushes all local tags to remote.
func (t *Toolchain) PushTags(ctx context.Context, remote string) error {
	return t.exec(ctx, CmdTagPush, nil, map[string]cty.Value{"remote": cty.StringVal(remote)})
}

// Login authenticates with the container registry.
func (t *Toolchain) Login(ctx context.Context) error {
	return t.exec(ctx, CmdRegistryLogin, nil, nil)
}

// Push uploads one image tag.
func (t *Toolchain) Push(ctx context.Context, ref toolchain.ImageRef) error {
	return t.exec(ctx, CmdImagePush, nil, map[string]cty.Value{"image": cty.StringVal(ref.String())})
}
