// Package config loads toolfence configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the full toolfence configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Redact  RedactConfig  `mapstructure:"redact"`
	Payload PayloadConfig `mapstructure:"payload"`
	Anomaly AnomalyConfig `mapstructure:"anomaly"`
	Skills  SkillsConfig  `mapstructure:"skills"`
	Mirror  MirrorConfig  `mapstructure:"mirror"`
}

// LogConfig locates the telemetry partition directory.
type LogConfig struct {
	Dir string `mapstructure:"dir"`
}

// PolicyConfig locates the persisted policy file.
type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

// RedactConfig controls sensitive-data masking.
type RedactConfig struct {
	// Enabled defaults to true; disabling skips masking entirely while
	// truncation and classification still run.
	Enabled *bool `mapstructure:"enabled"`
}

// PayloadConfig bounds stored payload sizes.
type PayloadConfig struct {
	MaxBytes int `mapstructure:"max_bytes"`
}

// AnomalyConfig controls behavioral checks.
type AnomalyConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	LargePayloadBytes int     `mapstructure:"large_payload_bytes"`
	BurstRate         float64 `mapstructure:"burst_rate"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// SkillsConfig lists skill root directories to scan. The per-user root
// is always included; workspace roots come from the host's config.
type SkillsConfig struct {
	Roots []string `mapstructure:"roots"`
}

// MirrorConfig enables the optional Cloud Logging mirror.
type MirrorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Project string `mapstructure:"project"`
	LogID   string `mapstructure:"log_id"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	base := baseDir()

	if cfg.Log.Dir == "" {
		cfg.Log.Dir = filepath.Join(base, "logs")
	}
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = filepath.Join(base, "policy.json")
	}
	if cfg.Payload.MaxBytes == 0 {
		cfg.Payload.MaxBytes = 8192
	}
	if cfg.Anomaly.LargePayloadBytes == 0 {
		cfg.Anomaly.LargePayloadBytes = 65536
	}
	if cfg.Anomaly.BurstSize == 0 {
		cfg.Anomaly.BurstSize = 20
	}
	if cfg.Mirror.LogID == "" {
		cfg.Mirror.LogID = "toolfence"
	}

	// The well-known per-user skill directory always participates.
	userRoot := filepath.Join(base, "skills")
	for _, r := range cfg.Skills.Roots {
		if r == userRoot {
			return
		}
	}
	cfg.Skills.Roots = append([]string{userRoot}, cfg.Skills.Roots...)
}

// RedactEnabled resolves the tri-state redaction flag (default on).
func (c *Config) RedactEnabled() bool {
	if c.Redact.Enabled == nil {
		return true
	}
	return *c.Redact.Enabled
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Payload.MaxBytes < 256 {
		return fmt.Errorf("payload.max_bytes must be at least 256, got %d", c.Payload.MaxBytes)
	}
	if c.Anomaly.BurstRate < 0 {
		return fmt.Errorf("anomaly.burst_rate must not be negative")
	}
	if c.Mirror.Enabled && c.Mirror.Project == "" {
		return fmt.Errorf("mirror.project is required when the mirror is enabled")
	}
	return nil
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolfence"
	}
	return filepath.Join(home, ".toolfence")
}
