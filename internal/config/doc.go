// Package config defines the format-agnostic pipeline model and the Loader
// interface that populates it.
//
// The `config.Pipeline` is the single source of truth for the `pipeline`
// package, which turns it into runnable stages. Concrete loaders for HCL and
// YAML live in separate packages and only need to produce this model.
package config
