package models

import "time"

// GPUMemory represents framebuffer memory of a single GPU device
type GPUMemory struct {
	UsedBytes  uint64 `json:"used_bytes"`
	TotalBytes uint64 `json:"total_bytes"`
}

// SensorReading is one named value reported by the sensor provider
type SensorReading struct {
	Name  string      `json:"name"`
	Value SensorValue `json:"value"`
}

// Snapshot is the complete set of readings taken in one sampling cycle.
// A published Snapshot is never modified; the next cycle replaces it.
type Snapshot struct {
	Seq           uint64          `json:"seq"`
	TakenAt       time.Time       `json:"taken_at"`
	CPUPercent    *float64        `json:"cpu_percent"`
	MemoryPercent *float64        `json:"memory_percent"`
	GPU           *GPUMemory      `json:"gpu"`
	Sensors       []SensorReading `json:"sensors"`
}

// EmptySnapshot returns the placeholder shown before the first cycle completes
func EmptySnapshot() *Snapshot {
	return &Snapshot{Sensors: []SensorReading{}}
}

// Ready reports whether the snapshot came from a completed sampling cycle
func (s *Snapshot) Ready() bool {
	return s != nil && s.Seq > 0
}

// Float64 returns a pointer to v, for optional snapshot fields
func Float64(v float64) *float64 {
	return &v
}

// DedupeSensors collapses readings that share a name. The first occurrence
// keeps its position and the last occurrence supplies the value.
func DedupeSensors(readings []SensorReading) []SensorReading {
	out := make([]SensorReading, 0, len(readings))
	index := make(map[string]int, len(readings))
	for _, r := range readings {
		if i, ok := index[r.Name]; ok {
			out[i].Value = r.Value
			continue
		}
		index[r.Name] = len(out)
		out = append(out, r)
	}
	return out
}
