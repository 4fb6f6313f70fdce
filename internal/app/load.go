package app

import (
	"context"
	"fmt"

	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/ctxlog"
	hclconf "github.com/vk/shipgrid/internal/hcl"
	"github.com/vk/shipgrid/internal/pipeline"
	"github.com/vk/shipgrid/internal/yamlconf"
)

// loaderFor picks the loader matching the file extension of path.
func loaderFor(path string) config.Loader {
	if config.FormatOf(path) == config.FormatYAML {
		return yamlconf.NewLoader()
	}
	return hclconf.NewLoader()
}

// loadPipeline reads the pipeline definition, falling back to the embedded
// default when path is empty.
func loadPipeline(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		logger.Debug("Using embedded default pipeline.")
		return pipeline.Default(ctx)
	}
	logger.Debug("Loading pipeline.", "path", path, "format", config.FormatOf(path))
	cfg, err := loaderFor(path).Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	return cfg, nil
}
