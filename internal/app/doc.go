// Package app contains the core application logic. It loads the pipeline,
// resolves parameters, wires capabilities and dispatches the requested
// operation, decoupled from any specific entrypoint like a CLI.
package app
