package browse

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Huchangzhi/ShellChrome/browse/internal/driver"
)

// Config holds all browse session configuration.
type Config struct {
	Driver driver.Config `yaml:"driver"`

	// DBPath is the SQLite database used for the action audit trail.
	// Empty disables auditing.
	DBPath string `yaml:"db_path"`

	// DefaultWaitTimeout bounds waitFor when the caller passes none.
	DefaultWaitTimeout time.Duration `yaml:"default_wait_timeout"`

	// AuditRetentionDays prunes action events older than this. Zero keeps
	// everything.
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

func (c *Config) defaults() {
	if c.DefaultWaitTimeout <= 0 {
		c.DefaultWaitTimeout = 10 * time.Second
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
