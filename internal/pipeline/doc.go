// Package pipeline turns a loaded `config.Pipeline` into a runnable
// `stage.Pipeline`.
//
// Stages either run a shell command template or name a built-in action.
// Built-in actions are registered Go functions bound to toolchain
// capabilities, so the orchestration can be exercised with fakes. The
// package also embeds the default pipeline used when no configuration file
// is given.
package pipeline
