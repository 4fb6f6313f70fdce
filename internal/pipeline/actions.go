package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/bundle"
	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/shell"
	"github.com/vk/shipgrid/internal/toolchain"
	"github.com/vk/shipgrid/internal/worktree"
)

// DefaultRemote receives pushed tags when the remote parameter is empty.
const DefaultRemote = "origin"

func builtins() []*Builtin {
	return []*Builtin{
		{Name: "compile", Description: "Build native extensions in place", Run: runCompile},
		{Name: "install", Description: "Install the package", Run: runInstall},
		{Name: "test", Description: "Run the test suite", Run: runSuite("test")},
		{Name: "perftest", Description: "Run the performance tests", Run: runSuite("perftest")},
		{Name: "clean", Description: "Remove build byproducts from the working tree", Run: runClean},
		{Name: "tag", Description: "Create the version tag", Requires: []string{params.Version}, Run: runTag},
		{Name: "package", Description: "Build source and wheel distributions", Requires: []string{params.Module, params.Version}, Run: runPackage},
		{Name: "publish", Description: "Upload distributions to the package registry", Requires: []string{params.Module, params.Version}, Run: runPublish},
		{Name: "push-tags", Description: "Push all tags upstream", Run: runPushTags},
		{Name: "containerize", Description: "Build, alias and push the container image", Requires: []string{params.Version, params.Repository}, Run: runContainerize},
		{Name: "notify", Description: "Create the release on the hosting API", Requires: []string{params.Token, params.Repository, params.Version}, Run: runNotify},
		{Name: "bundle", Description: "Archive the workflow bundle", Run: runBundle},
	}
}

var errNoCapability = errors.New("capability not configured")

func missing(what string) error {
	return fmt.Errorf("%s: %w", what, errNoCapability)
}

func runCompile(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Compiler == nil {
		return missing("compiler")
	}
	return b.Compiler.Compile(ctx, p)
}

func runInstall(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Compiler == nil {
		return missing("compiler")
	}
	return b.Compiler.Install(ctx, p)
}

func runSuite(suite string) func(context.Context, *Binding, *params.Set) error {
	return func(ctx context.Context, b *Binding, p *params.Set) error {
		if b.Tests == nil {
			return missing("test runner")
		}
		return b.Tests.RunTests(ctx, p, suite)
	}
}

func runClean(ctx context.Context, b *Binding, p *params.Set) error {
	rules := worktree.Rules{}
	if b.Clean != nil {
		var err error
		if rules.Paths, err = renderAll(b.Clean.Paths, p); err != nil {
			return fmt.Errorf("clean paths: %w", err)
		}
		if rules.Patterns, err = renderAll(b.Clean.Patterns, p); err != nil {
			return fmt.Errorf("clean patterns: %w", err)
		}
		if rules.Skip, err = renderAll(b.Clean.Skip, p); err != nil {
			return fmt.Errorf("clean skip: %w", err)
		}
	}
	removed, err := worktree.New(b.Dir, rules, b.Tags).Clean(ctx)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Removed build byproducts", "count", len(removed))
	return nil
}

func runTag(ctx context.Context, b *Binding, p *params.Set) error {
	return worktree.New(b.Dir, worktree.Rules{}, b.Tags).CreateTag(ctx, p.Value(params.Version))
}

func runPackage(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Packager == nil {
		return missing("packager")
	}
	artifacts, err := b.Packager.BuildDistributions(ctx, p)
	if err != nil {
		return err
	}
	b.artifacts = artifacts
	for _, a := range artifacts {
		ctxlog.FromContext(ctx).Info("Built distribution", "kind", a.Kind, "file", a.Name())
	}
	return nil
}

func runPublish(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Registry == nil {
		return missing("registry client")
	}
	if len(b.artifacts) == 0 {
		return errors.New("no distributions to publish; the package stage must run first")
	}
	artifacts := b.Artifacts()
	if err := b.Registry.Register(ctx, p, artifacts); err != nil {
		return fmt.Errorf("package registry registration: %w", err)
	}
	return b.Registry.Upload(ctx, p, artifacts)
}

func runPushTags(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Tags == nil {
		return missing("tag client")
	}
	remote := p.Value(params.Remote)
	if remote == "" {
		remote = DefaultRemote
	}
	return b.Tags.PushTags(ctx, remote)
}

// runContainerize builds the version image, aliases it as latest, and
// pushes both tags. A failed build stops before any registry call.
func runContainerize(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Packager == nil {
		return missing("packager")
	}
	if b.Containers == nil {
		return missing("container client")
	}

	version := toolchain.ImageRef{Repository: p.Value(params.Repository), Tag: p.Value(params.Version)}
	latest := toolchain.ImageRef{Repository: version.Repository, Tag: toolchain.LatestTag}

	if err := b.Packager.BuildImage(ctx, p, version); err != nil {
		return fmt.Errorf("build image %s: %w", version, err)
	}
	if err := b.Packager.TagImage(ctx, version, latest); err != nil {
		return fmt.Errorf("tag image %s: %w", latest, err)
	}
	if err := b.Containers.Login(ctx); err != nil {
		return fmt.Errorf("container registry login: %w", err)
	}
	for _, ref := range []toolchain.ImageRef{version, latest} {
		if err := b.Containers.Push(ctx, ref); err != nil {
			return fmt.Errorf("push image %s: %w", ref, err)
		}
	}
	return nil
}

func runNotify(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Notifier == nil {
		return missing("release notifier")
	}
	return b.Notifier.Notify(ctx, p, toolchain.NewReleaseDescriptor(p))
}

func runBundle(ctx context.Context, b *Binding, p *params.Set) error {
	if b.Bundle == nil {
		return errors.New("no bundle block configured")
	}
	if b.Bundler == nil {
		return missing("bundler")
	}

	m := &bundle.Manifest{Root: b.Bundle.Root, Output: b.Bundle.Output}
	for _, e := range b.Bundle.Entries {
		m.Entries = append(m.Entries, bundle.Entry{Path: e.Path, Base: e.Base})
	}
	if b.Bundle.UploadURL != nil {
		url, err := shell.Render(b.Bundle.UploadURL, p.EvalContext())
		if err != nil {
			return fmt.Errorf("bundle upload_url: %w", err)
		}
		m.UploadURL = url
	}

	out, err := b.Bundler.Bundle(ctx, m)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Workflow bundle ready", "path", out)
	return nil
}

func renderAll(exprs []hcl.Expression, p *params.Set) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s, err := shell.Render(e, p.EvalContext())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
