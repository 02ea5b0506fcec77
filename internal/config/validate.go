package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid combinations.
func Validate(cfg *Config) error {
	switch cfg.Restart {
	case "continue", "restart", "kill":
	default:
		return fmt.Errorf("invalid -restart value %q (want continue, restart, or kill)", cfg.Restart)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid -log-format value %q (want json or text)", cfg.LogFormat)
	}

	for _, e := range cfg.Env {
		if !strings.Contains(e, "=") {
			return fmt.Errorf("invalid -env entry %q (want KEY=VALUE)", e)
		}
	}

	return nil
}
