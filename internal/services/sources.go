package services

import (
	"context"
	"errors"

	"sysmonitor/internal/models"
)

// ErrSourceUnavailable marks a telemetry source that is not present on this
// machine (no GPU, no driver, sensor provider not running). The sampler
// reports such fields as absent instead of keeping a stale value.
var ErrSourceUnavailable = errors.New("telemetry source unavailable")

// CPUSource reports system-wide CPU utilization
type CPUSource interface {
	CPUPercent(ctx context.Context) (float64, error)
}

// MemorySource reports virtual memory utilization
type MemorySource interface {
	MemoryPercent(ctx context.Context) (float64, error)
}

// GPUSource reports framebuffer memory of one GPU device
type GPUSource interface {
	GPUMemory(ctx context.Context) (models.GPUMemory, error)
	Close() error
}

// SensorSource enumerates every named hardware sensor reading
type SensorSource interface {
	Sensors(ctx context.Context) ([]models.SensorReading, error)
}

// Sources bundles the four data sources queried in each cycle.
// A nil source always yields an absent field.
type Sources struct {
	CPU     CPUSource
	Memory  MemorySource
	GPU     GPUSource
	Sensors SensorSource
}

// Close releases sources that hold native handles
func (s Sources) Close() error {
	if s.GPU != nil {
		return s.GPU.Close()
	}
	return nil
}
