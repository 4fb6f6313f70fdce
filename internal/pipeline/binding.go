package pipeline

import (
	"github.com/vk/shipgrid/internal/bundle"
	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/toolchain"
)

// Capabilities are the external collaborators built-in actions call.
type Capabilities struct {
	Compiler   toolchain.Compiler
	Tests      toolchain.TestRunner
	Packager   toolchain.Packager
	Registry   toolchain.RegistryClient
	Tags       toolchain.TagClient
	Containers toolchain.ContainerClient
	Notifier   toolchain.ReleaseNotifier
	Shell      toolchain.Shell
	Bundler    *bundle.Bundler
	// Dir is the root of the working tree.
	Dir string
}

// Binding is what a built-in action sees when it runs: the capabilities,
// the static configuration blocks, and state handed from one stage to a
// later one within the same invocation.
type Binding struct {
	Capabilities
	Clean  *config.Clean
	Bundle *config.Bundle

	// artifacts are produced by the package action and consumed by publish.
	artifacts []toolchain.Artifact
}

// Artifacts returns the distributions built so far in this invocation.
func (b *Binding) Artifacts() []toolchain.Artifact {
	return append([]toolchain.Artifact(nil), b.artifacts...)
}
