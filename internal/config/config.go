// Package config provides configuration management for the go-cmd-mux CLI.
package config

// Config holds all CLI options.
type Config struct {
	// Run options
	Restart     string   `json:"restart"` // continue, restart, kill
	Quiet       bool     `json:"quiet"`
	HandleFlags bool     `json:"handle_flags"`
	Dir         string   `json:"dir"`
	Env         []string `json:"env"` // KEY=VALUE, applied to every command

	// Output routing
	WriterPath string `json:"writer_path"` // non-empty: writer facade to this file

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Summary     bool   `json:"summary"`
	LogFormat   string `json:"log_format"` // json, text
	LogLevel    string `json:"log_level"`
	Verbose     bool   `json:"verbose"`

	// Diagnostics
	SkipPreflight bool `json:"skip_preflight"`
	Version       bool `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Restart:     "continue",
		MetricsAddr: "", // disabled unless asked for
		LogFormat:   "text",
		LogLevel:    "warn",
	}
}
