// Package config loads, normalizes, and validates docfactory's TOML
// configuration. Defaults live in defaults.go; validation failures are
// startup-fatal configuration errors.
package config
