package pipeline

import (
	"context"
	_ "embed"

	"github.com/vk/shipgrid/internal/config"
	hclconf "github.com/vk/shipgrid/internal/hcl"
)

//go:embed default.hcl
var defaultHCL []byte

// DefaultName identifies the embedded pipeline in diagnostics.
const DefaultName = "embedded:default.hcl"

// Default returns the embedded pipeline definition.
func Default(ctx context.Context) (*config.Pipeline, error) {
	return hclconf.NewLoader().Parse(ctx, DefaultName, defaultHCL)
}

// DefaultSource returns the embedded HCL text.
func DefaultSource() []byte {
	return append([]byte(nil), defaultHCL...)
}
