package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Restart != "continue" {
		t.Errorf("Restart = %q, want continue", cfg.Restart)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q, want disabled by default", cfg.MetricsAddr)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"restart policy restart", func(c *Config) { c.Restart = "restart" }, false},
		{"restart policy kill", func(c *Config) { c.Restart = "kill" }, false},
		{"bad restart policy", func(c *Config) { c.Restart = "bounce" }, true},
		{"json log format", func(c *Config) { c.LogFormat = "json" }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"valid env", func(c *Config) { c.Env = []string{"A=1", "B=two"} }, false},
		{"env missing equals", func(c *Config) { c.Env = []string{"JUSTAKEY"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvListSet(t *testing.T) {
	var e envList
	if err := e.Set("A=1"); err != nil {
		t.Fatalf("Set(A=1): %v", err)
	}
	if err := e.Set("B=2"); err != nil {
		t.Fatalf("Set(B=2): %v", err)
	}
	if err := e.Set("no-equals"); err == nil {
		t.Error("Set(no-equals) accepted a malformed entry")
	}
	if len(e) != 2 || e[0] != "A=1" || e[1] != "B=2" {
		t.Errorf("envList = %v, want [A=1 B=2]", e)
	}
}
