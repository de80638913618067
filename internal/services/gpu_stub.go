//go:build !(linux && cgo)

package services

import (
	"context"
	"fmt"
	"runtime"

	"sysmonitor/internal/models"
)

type noGPU struct{}

// NewGPUSource returns a source that is always unavailable; NVML bindings
// are only built for linux with cgo.
func NewGPUSource(index int) GPUSource {
	return noGPU{}
}

func (noGPU) GPUMemory(context.Context) (models.GPUMemory, error) {
	return models.GPUMemory{}, fmt.Errorf("nvml not built for %s: %w", runtime.GOOS, ErrSourceUnavailable)
}

func (noGPU) Close() error { return nil }
