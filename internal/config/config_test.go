package config

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{}
	applyDefaults(&valid)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "payload budget below floor",
			mutate:  func(c *Config) { c.Payload.MaxBytes = 100 },
			wantErr: "payload.max_bytes",
		},
		{
			name:    "negative burst rate",
			mutate:  func(c *Config) { c.Anomaly.BurstRate = -1 },
			wantErr: "burst_rate",
		},
		{
			name:    "mirror without project",
			mutate:  func(c *Config) { c.Mirror.Enabled = true },
			wantErr: "mirror.project",
		},
		{
			name: "mirror with project",
			mutate: func(c *Config) {
				c.Mirror.Enabled = true
				c.Mirror.Project = "example-project"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	applyDefaults(&cfg)

	if cfg.Log.Dir == "" || cfg.Policy.Path == "" {
		t.Error("paths not defaulted")
	}
	if cfg.Payload.MaxBytes != 8192 {
		t.Errorf("MaxBytes = %d, want 8192", cfg.Payload.MaxBytes)
	}
	if cfg.Anomaly.LargePayloadBytes != 65536 {
		t.Errorf("LargePayloadBytes = %d, want 65536", cfg.Anomaly.LargePayloadBytes)
	}
	if len(cfg.Skills.Roots) != 1 {
		t.Errorf("Skills.Roots = %v, want the per-user root", cfg.Skills.Roots)
	}
	if !cfg.RedactEnabled() {
		t.Error("redaction should default to enabled")
	}

	// Workspace roots are kept; the per-user root is prepended once.
	cfg2 := Config{Skills: SkillsConfig{Roots: []string{"/workspace/skills"}}}
	applyDefaults(&cfg2)
	if len(cfg2.Skills.Roots) != 2 {
		t.Errorf("Skills.Roots = %v, want per-user root plus workspace root", cfg2.Skills.Roots)
	}

	off := false
	cfg3 := Config{Redact: RedactConfig{Enabled: &off}}
	applyDefaults(&cfg3)
	if cfg3.RedactEnabled() {
		t.Error("explicit redact.enabled=false must win")
	}
}
