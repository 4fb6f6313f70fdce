// Package hcl provides the HCL implementation of the `config.Loader`
// interface. It owns file discovery, parsing, and the translation of HCL
// blocks into the format-agnostic pipeline model.
package hcl
