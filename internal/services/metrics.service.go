package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostCPU reads CPU utilization through gopsutil.
// Each call reports utilization since the previous call, so the first
// reading after startup may be zero.
type HostCPU struct{}

// CPUPercent returns system-wide CPU usage percentage
func (HostCPU) CPUPercent(ctx context.Context) (float64, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percentage) == 0 {
		return 0, fmt.Errorf("cpu percent: %w", ErrSourceUnavailable)
	}
	return percentage[0], nil
}

// HostMemory reads virtual memory usage through gopsutil
type HostMemory struct{}

// MemoryPercent returns virtual memory usage percentage
func (HostMemory) MemoryPercent(ctx context.Context) (float64, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return virtualMemory.UsedPercent, nil
}

// DefaultSources wires the host implementations for this platform
func DefaultSources(gpuIndex int, sensorNamespace string) Sources {
	return Sources{
		CPU:     HostCPU{},
		Memory:  HostMemory{},
		GPU:     NewGPUSource(gpuIndex),
		Sensors: NewSensorSource(sensorNamespace),
	}
}
