package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
controller:
  id: "test-controller"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
telemetry:
  port: 4000
sweeper:
  interval: 5
  offline_threshold: 30
api:
  host: "0.0.0.0"
  port: 3000
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Controller.ID != "test-controller" {
		t.Errorf("Controller.ID = %q, want %q", cfg.Controller.ID, "test-controller")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Telemetry.Port != 4000 {
		t.Errorf("Telemetry.Port = %d, want 4000", cfg.Telemetry.Port)
	}

	// Defaults should survive a partial file
	if cfg.Telemetry.ReadBufferSize != 65535 {
		t.Errorf("Telemetry.ReadBufferSize = %d, want default 65535", cfg.Telemetry.ReadBufferSize)
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("WebSocket.Path = %q, want default %q", cfg.WebSocket.Path, "/ws")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
controller:
  id: ""
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty controller.id, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
controller:
  id: "test-controller"
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("AIRFLEET_DATABASE_PATH", "/override/airfleet.db")
	t.Setenv("AIRFLEET_TELEMETRY_PORT", "4400")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/override/airfleet.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Telemetry.Port != 4400 {
		t.Errorf("Telemetry.Port = %d, want env override 4400", cfg.Telemetry.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing controller id",
			mutate:  func(c *Config) { c.Controller.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "telemetry port out of range",
			mutate:  func(c *Config) { c.Telemetry.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "tiny read buffer",
			mutate:  func(c *Config) { c.Telemetry.ReadBufferSize = 16 },
			wantErr: true,
		},
		{
			name:    "offline threshold not above interval",
			mutate:  func(c *Config) { c.Sweeper.OfflineThreshold = c.Sweeper.Interval },
			wantErr: true,
		},
		{
			name:    "invalid qos with mqtt enabled",
			mutate:  func(c *Config) { c.MQTT.Enabled = true; c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without token",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://localhost:8086" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_WireCompatibility(t *testing.T) {
	cfg := defaultConfig()

	// Existing AP agents send to UDP 4000 and expect a 30s offline window.
	if cfg.Telemetry.Port != 4000 {
		t.Errorf("default telemetry port = %d, want 4000", cfg.Telemetry.Port)
	}
	if cfg.Sweeper.Interval != 5 {
		t.Errorf("default sweep interval = %d, want 5", cfg.Sweeper.Interval)
	}
	if cfg.Sweeper.OfflineThreshold != 30 {
		t.Errorf("default offline threshold = %d, want 30", cfg.Sweeper.OfflineThreshold)
	}
}
