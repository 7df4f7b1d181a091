// =============================================================================
// 文件: internal/config/config_test.go
// 描述: 配置鲁棒性测试 - 确保错误配置能在启动前被拦截
// =============================================================================
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel default wrong: got %s, want info", cfg.LogLevel)
	}
	if cfg.QueueCapacity != 8 {
		t.Errorf("QueueCapacity default wrong: got %d, want 8", cfg.QueueCapacity)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled default should be true")
	}
	if cfg.Metrics.Listen != ":9100" {
		t.Errorf("Metrics.Listen default wrong: got %s, want :9100", cfg.Metrics.Listen)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path default wrong: got %s, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Metrics.HealthPath != "/health" {
		t.Errorf("Metrics.HealthPath default wrong: got %s, want /health", cfg.Metrics.HealthPath)
	}
}

func TestValidateRemoteAddr(t *testing.T) {
	t.Run("empty remote_addr fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = ""

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for empty remote_addr")
		}
		if !strings.Contains(err.Error(), "remote_addr") {
			t.Errorf("error should mention remote_addr: %v", err)
		}
	})

	t.Run("non-empty remote_addr passes", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateQueueCapacity(t *testing.T) {
	t.Run("zero fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.QueueCapacity = 0

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for zero queue_capacity")
		}
		if !strings.Contains(err.Error(), "queue_capacity") {
			t.Errorf("error should mention queue_capacity: %v", err)
		}
	})

	t.Run("negative fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.QueueCapacity = -1

		if err := cfg.Validate(); err == nil {
			t.Fatal("expected an error for negative queue_capacity")
		}
	})

	t.Run("positive passes", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.QueueCapacity = 1

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "error"} {
		t.Run(level+" is valid", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.RemoteAddr = "127.0.0.1:9443"
			cfg.LogLevel = level

			if err := cfg.Validate(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("unknown level fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.LogLevel = "trace"

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for unknown log_level")
		}
		if !strings.Contains(err.Error(), "log_level") {
			t.Errorf("error should mention log_level: %v", err)
		}
	})
}

func TestValidateMetrics(t *testing.T) {
	t.Run("empty listen fails when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = ""

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for empty metrics.listen")
		}
		if !strings.Contains(err.Error(), "metrics.listen") {
			t.Errorf("error should mention metrics.listen: %v", err)
		}
	})

	t.Run("empty path fails when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.Metrics.Enabled = true
		cfg.Metrics.Path = ""

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected an error for empty metrics.path")
		}
		if !strings.Contains(err.Error(), "metrics.path") {
			t.Errorf("error should mention metrics.path: %v", err)
		}
	})

	t.Run("empty listen/path ignored when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"
		cfg.Metrics.Enabled = false
		cfg.Metrics.Listen = ""
		cfg.Metrics.Path = ""

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load("/nonexistent/path/config.yaml")
		if err == nil {
			t.Fatal("expected an error loading a nonexistent file")
		}
	})

	t.Run("valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")

		content := `
remote_addr: "127.0.0.1:9443"
log_level: "debug"
queue_capacity: 16
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.RemoteAddr != "127.0.0.1:9443" {
			t.Errorf("RemoteAddr wrong: got %s", cfg.RemoteAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel wrong: got %s", cfg.LogLevel)
		}
		if cfg.QueueCapacity != 16 {
			t.Errorf("QueueCapacity wrong: got %d", cfg.QueueCapacity)
		}
		// Unset fields should keep DefaultConfig's values.
		if cfg.Metrics.Listen != ":9100" {
			t.Errorf("Metrics.Listen should default to :9100: got %s", cfg.Metrics.Listen)
		}
	})

	t.Run("invalid YAML fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := `
remote_addr: "127.0.0.1:9443"
  bad: indentation
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		if _, err := Load(configPath); err == nil {
			t.Fatal("expected an error parsing invalid YAML")
		}
	})

	t.Run("missing remote_addr fails validation", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "no_remote_addr.yaml")

		content := `
log_level: "info"
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		_, err := Load(configPath)
		if err == nil {
			t.Fatal("expected validation to fail without remote_addr")
		}
		if !strings.Contains(err.Error(), "remote_addr") {
			t.Errorf("error should mention remote_addr: %v", err)
		}
	})
}

func TestGenerateExampleConfig(t *testing.T) {
	doc := GenerateExampleConfig()
	if !strings.Contains(doc, "remote_addr") {
		t.Error("example config should mention remote_addr")
	}
	if !strings.Contains(doc, "metrics:") {
		t.Error("example config should mention the metrics section")
	}
}

func TestWriteExampleConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "example.yaml")

	if err := WriteExampleConfig(path); err != nil {
		t.Fatalf("WriteExampleConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != GenerateExampleConfig() {
		t.Error("written file should match GenerateExampleConfig output")
	}
}

func TestEdgeCases(t *testing.T) {
	t.Run("zero-value config fails validation", func(t *testing.T) {
		cfg := &Config{}
		if err := cfg.Validate(); err == nil {
			t.Error("zero-value config should fail validation")
		}
	})

	t.Run("minimal valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RemoteAddr = "127.0.0.1:9443"

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
