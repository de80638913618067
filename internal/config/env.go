// This file contains environment variable overrides.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func applyEnv(cfg *Config) {
	cfg.Sampler.Interval = getEnvDuration("SAMPLE_INTERVAL", cfg.Sampler.Interval)
	cfg.Sampler.GPUIndex = getEnvInt("GPU_INDEX", cfg.Sampler.GPUIndex)
	cfg.Sampler.SensorNamespace = getEnvString("SENSOR_NAMESPACE", cfg.Sampler.SensorNamespace)

	cfg.Display.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", cfg.Display.RefreshInterval)
	cfg.Display.Theme = getEnvString("THEME", cfg.Display.Theme)

	cfg.Server.Enabled = getEnvBool("SERVER_ENABLED", cfg.Server.Enabled)
	cfg.Server.Listen = getEnvString("SERVER_LISTEN", cfg.Server.Listen)
	cfg.Server.Auth = getEnvBool("SERVER_AUTH", cfg.Server.Auth)
	cfg.Server.Secret = getEnvString("SERVER_SECRET", cfg.Server.Secret)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", cfg.MQTT.Enabled)
	cfg.MQTT.Broker = getEnvString("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.Topic = getEnvString("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.Username = getEnvString("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnvString("MQTT_PASSWORD", cfg.MQTT.Password)

	cfg.Log.Level = getEnvString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnvString("LOG_FILE", cfg.Log.File)
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts "true", "1", "yes" and "false", "0", "no" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
