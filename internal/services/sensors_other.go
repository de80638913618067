//go:build !windows

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/host"

	"sysmonitor/internal/models"
)

// HwmonSensorSource reads temperature sensors through gopsutil.
// The namespace argument of NewSensorSource only applies on Windows.
type HwmonSensorSource struct {
	read func(ctx context.Context) ([]host.TemperatureStat, error)
}

// NewSensorSource returns the gopsutil temperature sensor source
func NewSensorSource(string) SensorSource {
	return &HwmonSensorSource{read: host.SensorsTemperaturesWithContext}
}

// Sensors returns one reading per sensor key. Partial read warnings keep
// whatever readings were collected.
func (s *HwmonSensorSource) Sensors(ctx context.Context) ([]models.SensorReading, error) {
	temps, err := s.read(ctx)
	if err != nil {
		var warnings *host.Warnings
		if !errors.As(err, &warnings) {
			return nil, fmt.Errorf("hwmon sensors: %w", err)
		}
	}
	if len(temps) == 0 {
		return nil, fmt.Errorf("hwmon sensors: none found: %w", ErrSourceUnavailable)
	}

	readings := make([]models.SensorReading, 0, len(temps))
	for _, t := range temps {
		readings = append(readings, models.SensorReading{
			Name:  t.SensorKey,
			Value: models.FloatValue(t.Temperature),
		})
	}
	return models.DedupeSensors(readings), nil
}
