// Package config loads service configuration from environment variables.
//
// Settings are read with envconfig; Default mirrors the struct tag defaults.
// Console heuristics can be extended with an optional YAML or TOML pattern
// file named by CONSOLE_PATTERNS_FILE.
package config
