package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/shell"
	"github.com/vk/shipgrid/internal/toolchain"
)

// fakeTools implements every capability by recording calls. A call fails
// when its name is in failOn.
type fakeTools struct {
	calls  []string
	failOn map[string]error
	tags   map[string]bool
	dist   string
}

func newFakeTools() *fakeTools {
	return &fakeTools{failOn: map[string]error{}, tags: map[string]bool{}, dist: "dist"}
}

func (f *fakeTools) caps() Capabilities {
	return Capabilities{
		Compiler:   f,
		Tests:      f,
		Packager:   f,
		Registry:   f,
		Tags:       f,
		Containers: f,
		Notifier:   f,
		Shell:      f,
	}
}

func (f *fakeTools) record(call string) error {
	f.calls = append(f.calls, call)
	name, _, _ := strings.Cut(call, " ")
	return f.failOn[name]
}

func (f *fakeTools) called(name string) bool {
	for _, c := range f.calls {
		if c == name || strings.HasPrefix(c, name+" ") {
			return true
		}
	}
	return false
}

func (f *fakeTools) Compile(context.Context, *params.Set) error { return f.record("compile") }
func (f *fakeTools) Install(context.Context, *params.Set) error { return f.record("install") }

func (f *fakeTools) RunTests(_ context.Context, _ *params.Set, suite string) error {
	return f.record(suite)
}

func (f *fakeTools) BuildDistributions(_ context.Context, p *params.Set) ([]toolchain.Artifact, error) {
	if err := f.record("package"); err != nil {
		return nil, err
	}
	base := fmt.Sprintf("%s-%s", p.Value(params.Module), p.Value(params.Version))
	return []toolchain.Artifact{
		{Path: filepath.Join(f.dist, base+".tar.gz"), Kind: "sdist"},
		{Path: filepath.Join(f.dist, base+"-cp312-cp312-linux_x86_64.whl"), Kind: "wheel"},
	}, nil
}

func (f *fakeTools) BuildImage(_ context.Context, _ *params.Set, ref toolchain.ImageRef) error {
	return f.record("image_build " + ref.String())
}

func (f *fakeTools) TagImage(_ context.Context, src, dst toolchain.ImageRef) error {
	return f.record("image_tag " + src.String() + " " + dst.String())
}

func (f *fakeTools) Register(_ context.Context, _ *params.Set, artifacts []toolchain.Artifact) error {
	return f.record("register " + artifacts[0].Name())
}

func (f *fakeTools) Upload(_ context.Context, _ *params.Set, artifacts []toolchain.Artifact) error {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.Name())
	}
	return f.record("upload " + strings.Join(names, " "))
}

func (f *fakeTools) TagExists(_ context.Context, name string) (bool, error) {
	return f.tags[name], nil
}

func (f *fakeTools) CreateTag(_ context.Context, name string) error {
	if err := f.record("tag_create " + name); err != nil {
		return err
	}
	f.tags[name] = true
	return nil
}

func (f *fakeTools) PushTags(_ context.Context, remote string) error {
	return f.record("tag_push " + remote)
}

func (f *fakeTools) Login(context.Context) error { return f.record("registry_login") }

func (f *fakeTools) Push(_ context.Context, ref toolchain.ImageRef) error {
	return f.record("image_push " + ref.String())
}

func (f *fakeTools) Notify(_ context.Context, _ *params.Set, d toolchain.ReleaseDescriptor) error {
	return f.record("notify " + d.TagName)
}

func (f *fakeTools) Run(_ context.Context, p *params.Set, tmpl hcl.Expression) error {
	cmd, err := shell.Render(tmpl, p.EvalContext())
	if err != nil {
		return err
	}
	return f.record(cmd)
}
