package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/stage"
)

func TestParse(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"-config", "ci/pipeline.yaml",
		"-p", "version=1.2.0",
		"-p", "install_args=--user --force",
		"-log-level", "DEBUG",
		"-events-url", "http://localhost:3000",
		"release",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "ci/pipeline.yaml", cfg.ConfigPath)
	assert.Equal(t, "release", cfg.Operation)
	assert.Equal(t, map[string]string{"version": "1.2.0", "install_args": "--user --force"}, cfg.Overrides)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://localhost:3000", cfg.EventsURL)
	assert.Equal(t, "/", cfg.EventsNamespace)
}

func TestParse_PlanTarget(t *testing.T) {
	cfg, _, err := Parse([]string{"-c", "pipelines", "plan", "release"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "pipelines", cfg.ConfigPath)
	assert.Equal(t, "plan", cfg.Operation)
	assert.Equal(t, "release", cfg.Target)
}

func TestParse_UsageAndErrors(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown flag", []string{"-nope", "build"}, "flag provided but not defined"},
		{"bad assignment", []string{"-p", "=x", "build"}, "name"},
		{"bad log format", []string{"-log-format", "xml", "build"}, "invalid log-format"},
		{"too many args", []string{"plan", "a", "b"}, "too many arguments"},
		{"plan without target", []string{"plan"}, "plan requires a stage name"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	stageErr := &stage.StageError{Stage: "test", Err: errors.New("exit status 1")}
	assert.Equal(t, 1, FromError(stageErr).Code)
	assert.Equal(t, `stage "test" failed: exit status 1`, FromError(stageErr).Message)

	missing := fmt.Errorf("wrapped: %w", &params.MissingError{Names: []string{"token"}})
	assert.Equal(t, 2, FromError(missing).Code)
	assert.Equal(t, 2, FromError(&stage.UnknownStageError{Name: "deploy"}).Code)
	assert.Equal(t, 7, FromError(&ExitError{Code: 7, Message: "x"}).Code)
	assert.Equal(t, 1, FromError(errors.New("boom")).Code)
}
