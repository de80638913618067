package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysmonitor.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsMatchReferenceCadence(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sampler.Interval != 2*time.Second {
		t.Errorf("sampler interval = %s, want 2s", cfg.Sampler.Interval)
	}
	if cfg.Display.RefreshInterval != time.Second {
		t.Errorf("refresh interval = %s, want 1s", cfg.Display.RefreshInterval)
	}
	if cfg.Sampler.GPUIndex != 0 {
		t.Errorf("gpu index = %d, want 0", cfg.Sampler.GPUIndex)
	}
	if cfg.Sampler.SensorNamespace != `root\LibreHardwareMonitor` {
		t.Errorf("namespace = %q", cfg.Sampler.SensorNamespace)
	}
	if cfg.Server.Enabled || cfg.MQTT.Enabled {
		t.Error("server and mqtt must be off by default")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
sampler:
  interval: 5s
  gpu_index: 1
display:
  theme: modern
server:
  enabled: true
  listen: 0.0.0.0:9100
  allowed_ips: [10.0.0.5]
mqtt:
  enabled: true
  topic: lab/pc1
  qos: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sampler.Interval != 5*time.Second {
		t.Errorf("interval = %s, want 5s", cfg.Sampler.Interval)
	}
	if cfg.Sampler.GPUIndex != 1 {
		t.Errorf("gpu index = %d, want 1", cfg.Sampler.GPUIndex)
	}
	if cfg.Display.Theme != "modern" {
		t.Errorf("theme = %q, want modern", cfg.Display.Theme)
	}
	if !cfg.Server.Enabled || cfg.Server.Listen != "0.0.0.0:9100" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedIPs) != 1 || cfg.Server.AllowedIPs[0] != "10.0.0.5" {
		t.Errorf("allowed ips = %v", cfg.Server.AllowedIPs)
	}
	// Unset keys keep their defaults.
	if cfg.Display.RefreshInterval != time.Second {
		t.Errorf("refresh interval = %s, want default 1s", cfg.Display.RefreshInterval)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.Topic != "lab/pc1" || cfg.MQTT.QoS != 1 {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sampler:\n  interval: 5s\n")
	t.Setenv("SYSMON_SAMPLE_INTERVAL", "750ms")
	t.Setenv("SYSMON_THEME", "modern")
	t.Setenv("SYSMON_SERVER_ENABLED", "yes")
	t.Setenv("SYSMON_GPU_INDEX", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sampler.Interval != 750*time.Millisecond {
		t.Errorf("interval = %s, want 750ms", cfg.Sampler.Interval)
	}
	if cfg.Display.Theme != "modern" {
		t.Errorf("theme = %q", cfg.Display.Theme)
	}
	if !cfg.Server.Enabled {
		t.Error("server should be enabled by env")
	}
	if cfg.Sampler.GPUIndex != 0 {
		t.Errorf("invalid env value should be ignored, gpu index = %d", cfg.Sampler.GPUIndex)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero interval", func(c *Config) { c.Sampler.Interval = 0 }, "sampler.interval"},
		{"negative gpu", func(c *Config) { c.Sampler.GPUIndex = -1 }, "gpu_index"},
		{"zero refresh", func(c *Config) { c.Display.RefreshInterval = 0 }, "refresh_interval"},
		{"unknown theme", func(c *Config) { c.Display.Theme = "neon" }, "display.theme"},
		{"half tls", func(c *Config) {
			c.Server.Enabled = true
			c.Server.TLSCert = "cert.pem"
		}, "tls_cert"},
		{"bad qos", func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.QoS = 3
		}, "mqtt.qos"},
		{"disabled server ignores listen", func(c *Config) { c.Server.Listen = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "sampler: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
