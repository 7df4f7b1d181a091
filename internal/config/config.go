// =============================================================================
// 文件: internal/config/config.go
// 描述: YAML configuration for the fragment sender demo process
// =============================================================================
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for cmd/framesend-demo.
type Config struct {
	RemoteAddr    string `yaml:"remote_addr"`
	LogLevel      string `yaml:"log_level"`
	QueueCapacity int    `yaml:"queue_capacity"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig controls the Prometheus/health HTTP surface.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Listen     string `yaml:"listen"`
	Path       string `yaml:"path"`
	HealthPath string `yaml:"health_path"`
}

// Load reads and parses a YAML config file, starting from DefaultConfig
// so unset fields keep sane defaults, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when a field is absent
// from the loaded YAML document.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		QueueCapacity: 8,

		Metrics: MetricsConfig{
			Enabled:    true,
			Listen:     ":9100",
			Path:       "/metrics",
			HealthPath: "/health",
		},
	}
}

// Validate checks the configuration for obviously unusable values.
func (c *Config) Validate() error {
	if c.RemoteAddr == "" {
		return fmt.Errorf("config: remote_addr must not be empty")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("config: queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("config: log_level must be one of debug/info/error, got %q", c.LogLevel)
	}
	if c.Metrics.Enabled {
		if c.Metrics.Listen == "" {
			return fmt.Errorf("config: metrics.listen must not be empty when metrics.enabled is true")
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("config: metrics.path must not be empty when metrics.enabled is true")
		}
	}
	return nil
}

// GenerateExampleConfig returns a commented sample config document,
// written by -gen-config.
func GenerateExampleConfig() string {
	return `# framesend-demo configuration

# Address of the receiver accepting fragment datagrams and emitting
# acks back (host:port).
remote_addr: "127.0.0.1:9443"

# debug, info, or error.
log_level: "info"

# Number of frames that can wait in the queue, not counting the one
# being transmitted, before SendNewFrame starts returning ErrQueueFull.
queue_capacity: 8

metrics:
  enabled: true
  listen: ":9100"
  path: "/metrics"
  health_path: "/health"
`
}

// WriteExampleConfig writes GenerateExampleConfig's output to path.
func WriteExampleConfig(path string) error {
	return os.WriteFile(path, []byte(GenerateExampleConfig()), 0o644)
}
