//go:build linux && cgo

package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"sysmonitor/internal/models"
)

// NVMLSource reads GPU memory through the NVIDIA management library.
// NVML is initialized on first use; a failed init makes the source
// permanently unavailable for the life of the process.
type NVMLSource struct {
	index int

	once    sync.Once
	initErr error
	mu      sync.Mutex
	closed  bool
}

// NewGPUSource returns an NVML-backed source for the given device index
func NewGPUSource(index int) GPUSource {
	return &NVMLSource{index: index}
}

func (s *NVMLSource) init() error {
	s.once.Do(func() {
		if ret := nvml.Init(); ret != nvml.SUCCESS {
			s.initErr = fmt.Errorf("nvml init: %s: %w", nvml.ErrorString(ret), ErrSourceUnavailable)
		}
	})
	return s.initErr
}

// GPUMemory returns used and total framebuffer bytes of the configured device
func (s *NVMLSource) GPUMemory(ctx context.Context) (models.GPUMemory, error) {
	if err := ctx.Err(); err != nil {
		return models.GPUMemory{}, err
	}
	if err := s.init(); err != nil {
		return models.GPUMemory{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.GPUMemory{}, fmt.Errorf("nvml closed: %w", ErrSourceUnavailable)
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return models.GPUMemory{}, fmt.Errorf("nvml device count: %s", nvml.ErrorString(ret))
	}
	if s.index >= count {
		return models.GPUMemory{}, fmt.Errorf("gpu index %d of %d devices: %w", s.index, count, ErrSourceUnavailable)
	}

	device, ret := nvml.DeviceGetHandleByIndex(s.index)
	if ret != nvml.SUCCESS {
		return models.GPUMemory{}, fmt.Errorf("nvml device %d: %s", s.index, nvml.ErrorString(ret))
	}
	info, ret := device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return models.GPUMemory{}, fmt.Errorf("nvml memory info: %s", nvml.ErrorString(ret))
	}

	return models.GPUMemory{UsedBytes: info.Used, TotalBytes: info.Total}, nil
}

// Close shuts NVML down if it was initialized
func (s *NVMLSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	// Run init's once so a concurrent first call cannot init after shutdown.
	s.once.Do(func() { s.initErr = fmt.Errorf("nvml closed: %w", ErrSourceUnavailable) })
	if s.initErr != nil {
		return nil
	}
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}
