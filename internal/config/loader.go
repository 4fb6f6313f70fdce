package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads every given path and merges the result into one Pipeline.
	Load(ctx context.Context, paths ...string) (*Pipeline, error)
}

// Format identifies a pipeline file syntax.
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Directories and unknown
// extensions are treated as HCL.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatHCL
	}
}

// Merge folds src into dst. Later params and toolchain keys win, stages are
// appended, and the clean and bundle blocks may each be declared only once.
func Merge(dst, src *Pipeline) error {
	if dst.Params == nil {
		dst.Params = make(map[string]string)
	}
	if dst.Toolchain == nil {
		dst.Toolchain = make(map[string]hcl.Expression)
	}
	for k, v := range src.Params {
		dst.Params[k] = v
	}
	for k, v := range src.Toolchain {
		dst.Toolchain[k] = v
	}
	if src.Clean != nil {
		if dst.Clean != nil {
			return fmt.Errorf("clean block declared more than once")
		}
		dst.Clean = src.Clean
	}
	if src.Bundle != nil {
		if dst.Bundle != nil {
			return fmt.Errorf("bundle block declared more than once")
		}
		dst.Bundle = src.Bundle
	}
	dst.Stages = append(dst.Stages, src.Stages...)
	return nil
}
