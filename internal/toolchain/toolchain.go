// Package toolchain declares the narrow capabilities the pipeline drives:
// the compiler, test runner, packager, registries, source control and the
// release-hosting API. The orchestration core only sees these interfaces, so
// it can be exercised with fakes.
package toolchain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/params"
)

// Compiler builds native extensions and installs the package.
type Compiler interface {
	Compile(ctx context.Context, p *params.Set) error
	Install(ctx context.Context, p *params.Set) error
}

// TestRunner runs a test suite. Suite selects the marker set, for example
// "unit" or "perf".
type TestRunner interface {
	RunTests(ctx context.Context, p *params.Set, suite string) error
}

// Packager produces distributable artifacts.
type Packager interface {
	BuildDistributions(ctx context.Context, p *params.Set) ([]Artifact, error)
	BuildImage(ctx context.Context, p *params.Set, ref ImageRef) error
	TagImage(ctx context.Context, src, dst ImageRef) error
}

// RegistryClient uploads distributions to a package registry. Register must
// succeed before Upload is attempted.
type RegistryClient interface {
	Register(ctx context.Context, p *params.Set, artifacts []Artifact) error
	Upload(ctx context.Context, p *params.Set, artifacts []Artifact) error
}

// TagClient manages source-control tags.
type TagClient interface {
	TagExists(ctx context.Context, name string) (bool, error)
	CreateTag(ctx context.Context, name string) error
	PushTags(ctx context.Context, remote string) error
}

// ContainerClient talks to a container registry.
type ContainerClient interface {
	Login(ctx context.Context) error
	Push(ctx context.Context, ref ImageRef) error
}

// ReleaseNotifier announces a release to the hosting API.
type ReleaseNotifier interface {
	Notify(ctx context.Context, p *params.Set, d ReleaseDescriptor) error
}

// Shell runs a pass-through command template with no further logic.
type Shell interface {
	Run(ctx context.Context, p *params.Set, tmpl hcl.Expression) error
}

// Artifact is one distributable file.
type Artifact struct {
	Path string
	Kind string // "sdist" or "wheel"
}

// Name is the artifact's file name.
func (a Artifact) Name() string { return filepath.Base(a.Path) }

// ImageRef names a container image tag.
type ImageRef struct {
	Repository string
	Tag        string
}

func (r ImageRef) String() string { return r.Repository + ":" + r.Tag }

// LatestTag is the floating alias applied to every released image.
const LatestTag = "latest"

// ReleaseDescriptor is the payload sent to the release-hosting API.
type ReleaseDescriptor struct {
	TagName         string `json:"tag_name"`
	TargetCommitish string `json:"target_commitish"`
	Name            string `json:"name"`
	Body            string `json:"body"`
	Draft           bool   `json:"draft"`
	Prerelease      bool   `json:"prerelease"`
}

// DefaultBranch is the release target when no branch parameter is set.
const DefaultBranch = "master"

// NewReleaseDescriptor builds the descriptor for the version in p.
func NewReleaseDescriptor(p *params.Set) ReleaseDescriptor {
	branch := p.Value(params.Branch)
	if branch == "" {
		branch = DefaultBranch
	}
	version := p.Value(params.Version)
	return ReleaseDescriptor{
		TagName:         version,
		TargetCommitish: branch,
		Name:            version,
		Body:            p.Value(params.Description),
	}
}

// TagExistsError is returned when a tag name is already taken.
type TagExistsError struct {
	Name string
}

func (e *TagExistsError) Error() string {
	return fmt.Sprintf("tag %q already exists", e.Name)
}
