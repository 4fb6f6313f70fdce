package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Params    []*attributesBlock `hcl:"params,block"`
	Toolchain []*attributesBlock `hcl:"toolchain,block"`
	Clean     []*cleanBlock      `hcl:"clean,block"`
	Bundle    []*bundleBlock     `hcl:"bundle,block"`
	Stages    []*stageBlock      `hcl:"stage,block"`
	Remain    hcl.Body           `hcl:",remain"`
}

// attributesBlock captures a free-form block of attributes.
type attributesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type stageBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	DependsOn   []string       `hcl:"depends_on,optional"`
	Fatal       *bool          `hcl:"fatal,optional"`
	Requires    []string       `hcl:"requires,optional"`
	Action      string         `hcl:"action,optional"`
	Run         hcl.Expression `hcl:"run,optional"`
}

type cleanBlock struct {
	Paths    hcl.Expression `hcl:"paths,optional"`
	Patterns hcl.Expression `hcl:"patterns,optional"`
	Skip     hcl.Expression `hcl:"skip,optional"`
}

type bundleBlock struct {
	Root      string         `hcl:"root,optional"`
	Output    string         `hcl:"output"`
	UploadURL hcl.Expression `hcl:"upload_url,optional"`
	Entries   []*entryBlock  `hcl:"entry,block"`
}

type entryBlock struct {
	Path string `hcl:"path,label"`
	Base string `hcl:"base,optional"`
}
