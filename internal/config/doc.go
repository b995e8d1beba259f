// Package config loads, normalizes, and validates clive configuration.
//
// Configuration comes from a TOML file (default ~/.config/clive/config.toml
// or ./clive.toml) merged with CLI flag overrides. Load applies defaults,
// expands ~ in paths, and validates the result before the pipeline runs.
package config
