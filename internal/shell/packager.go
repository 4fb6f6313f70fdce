package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/toolchain"
	"github.com/zclconf/go-cty/cty"
)

// DefaultDistDir is where distributions are written when dist_dir is unset.
const DefaultDistDir = "dist"

// BuildDistributions runs the sdist and wheel commands and returns the files
// named after the module and version. The source distribution must be
// exactly {module}-{version}.tar.gz; wheels keep their platform suffix.
func (t *Toolchain) BuildDistributions(ctx context.Context, p *params.Set) ([]toolchain.Artifact, error) {
	if err := p.Require(params.Module, params.Version); err != nil {
		return nil, err
	}
	dir := p.Value(params.DistDir)
	if dir == "" {
		dir = DefaultDistDir
	}
	vars := map[string]cty.Value{"dist_dir": cty.StringVal(dir)}
	if err := t.exec(ctx, CmdSdist, p, vars); err != nil {
		return nil, err
	}
	if err := t.exec(ctx, CmdWheel, p, vars); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(dir) && t.Runner.Dir != "" {
		dir = filepath.Join(t.Runner.Dir, dir)
	}
	return CollectArtifacts(dir, p.Value(params.Module), p.Value(params.Version))
}

// CollectArtifacts finds the distributions for module and version in dir.
func CollectArtifacts(dir, module, version string) ([]toolchain.Artifact, error) {
	base := fmt.Sprintf("%s-%s", module, version)

	sdist := filepath.Join(dir, base+".tar.gz")
	if _, err := os.Stat(sdist); err != nil {
		return nil, fmt.Errorf("source distribution not found: %w", err)
	}

	wheels, err := filepath.Glob(filepath.Join(dir, base+"-*.whl"))
	if err != nil {
		return nil, err
	}
	if len(wheels) == 0 {
		return nil, fmt.Errorf("no wheel matching %s-*.whl in %s", base, dir)
	}
	sort.Strings(wheels)

	artifacts := []toolchain.Artifact{{Path: sdist, Kind: "sdist"}}
	for _, w := range wheels {
		artifacts = append(artifacts, toolchain.Artifact{Path: w, Kind: "wheel"})
	}
	return artifacts, nil
}

// BuildImage builds the container image from the configured image file.
func (t *Toolchain) BuildImage(ctx context.Context, p *params.Set, ref toolchain.ImageRef) error {
	file := p.Value(params.ImageFile)
	if file == "" {
		file = "Dockerfile"
	}
	return t.exec(ctx, CmdImageBuild, p, map[string]cty.Value{
		"image": cty.StringVal(ref.String()),
		"file":  cty.StringVal(file),
	})
}

// TagImage points dst at the same image content as src.
func (t *Toolchain) TagImage(ctx context.Context, src, dst toolchain.ImageRef) error {
	return t.exec(ctx, CmdImageTag, nil, map[string]cty.Value{
		"source": cty.StringVal(src.String()),
		"target": cty.StringVal(dst.String()),
	})
}
