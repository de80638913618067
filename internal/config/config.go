// Package config loads sysmonitor settings from an optional YAML file and
// SYSMON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SYSMON_"

// DefaultSensorNamespace is the WMI namespace LibreHardwareMonitor registers
const DefaultSensorNamespace = `root\LibreHardwareMonitor`

// Config is the full application configuration
type Config struct {
	Sampler SamplerConfig `yaml:"sampler"`
	Display DisplayConfig `yaml:"display"`
	Server  ServerConfig  `yaml:"server"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Log     LogConfig     `yaml:"log"`
}

// SamplerConfig controls the background sampling loop
type SamplerConfig struct {
	// Interval is the delay between the end of one cycle and the start of the next.
	Interval time.Duration `yaml:"interval"`
	// GPUIndex selects the NVML device whose memory is reported.
	GPUIndex int `yaml:"gpu_index"`
	// SensorNamespace is the WMI namespace queried for sensors on Windows.
	SensorNamespace string `yaml:"sensor_namespace"`
}

// DisplayConfig controls the terminal presenter
type DisplayConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// Theme is "classic" or "modern".
	Theme string `yaml:"theme"`
}

// ServerConfig controls the optional HTTP and WebSocket surface
type ServerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Listen         string        `yaml:"listen"`
	Auth           bool          `yaml:"auth"`
	Secret         string        `yaml:"secret"`
	TokenExpiry    time.Duration `yaml:"token_expiry"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedIPs     []string      `yaml:"allowed_ips"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	TLSCert        string        `yaml:"tls_cert"`
	TLSKey         string        `yaml:"tls_key"`
}

// MQTTConfig controls the optional snapshot publisher
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs while the terminal window is open. Empty picks a file in the temp dir.
	File string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Sampler: SamplerConfig{
			Interval:        2 * time.Second,
			GPUIndex:        0,
			SensorNamespace: DefaultSensorNamespace,
		},
		Display: DisplayConfig{
			RefreshInterval: time.Second,
			Theme:           "classic",
		},
		Server: ServerConfig{
			Listen:      "localhost:8080",
			Auth:        true,
			TokenExpiry: 90 * 24 * time.Hour,
			RateLimit:   100,
			RateBurst:   200,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			Topic:    "sysmonitor/snapshot",
			ClientID: "sysmonitor",
			Retain:   true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations
func (c Config) Validate() error {
	var errs []error

	if c.Sampler.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sampler.interval must be positive, got %s", c.Sampler.Interval))
	}
	if c.Sampler.GPUIndex < 0 {
		errs = append(errs, fmt.Errorf("sampler.gpu_index must not be negative, got %d", c.Sampler.GPUIndex))
	}
	if c.Display.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("display.refresh_interval must be positive, got %s", c.Display.RefreshInterval))
	}
	switch strings.ToLower(c.Display.Theme) {
	case "classic", "modern":
	default:
		errs = append(errs, fmt.Errorf("display.theme must be classic or modern, got %q", c.Display.Theme))
	}

	if c.Server.Enabled {
		if c.Server.Listen == "" {
			errs = append(errs, errors.New("server.listen is required when the server is enabled"))
		}
		if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
			errs = append(errs, errors.New("server.rate_limit and server.rate_burst must be positive"))
		}
		if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
			errs = append(errs, errors.New("server.tls_cert and server.tls_key must be set together"))
		}
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" || c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt.broker and mqtt.topic are required when mqtt is enabled"))
		}
		if c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}

	return errors.Join(errs...)
}
