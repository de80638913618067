package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"sysmonitor/internal/models"
)

const bytesPerMB = 1024 * 1024

// Rendered is the display text for one snapshot
type Rendered struct {
	CPU     string
	Memory  string
	GPU     string
	Sensors []string
}

// Render formats a snapshot for display. Absent readings render as zero,
// so the placeholder snapshot renders without error.
func Render(snap *models.Snapshot) Rendered {
	if snap == nil {
		snap = models.EmptySnapshot()
	}
	return Rendered{
		CPU:     "CPU Utilization: " + FormatPercent(snap.CPUPercent) + " %",
		Memory:  "Memory Usage: " + FormatPercent(snap.MemoryPercent) + " %",
		GPU:     "GPU Memory Used: " + FormatGPU(snap.GPU),
		Sensors: SensorLines(snap.Sensors),
	}
}

// Text returns the labels followed by one line per sensor
func (r Rendered) Text() string {
	lines := append([]string{r.CPU, r.Memory, r.GPU}, r.Sensors...)
	return strings.Join(lines, "\n")
}

// SensorText is the content of the scrollable sensor pane
func (r Rendered) SensorText() string {
	return strings.Join(r.Sensors, "\n")
}

// RenderText renders a snapshot as plain text
func RenderText(snap *models.Snapshot) string {
	return Render(snap).Text()
}

// FormatPercent rounds to two decimals and prints the shortest form with at
// least one fractional digit: 12.5, 40.0, 33.33. Absent is 0.0.
func FormatPercent(v *float64) string {
	if v == nil {
		return "0.0"
	}
	return formatRounded(*v)
}

// FormatGPU prints used and total memory in MB with two fixed decimals
func FormatGPU(gpu *models.GPUMemory) string {
	var used, total float64
	if gpu != nil {
		used = round2(float64(gpu.UsedBytes) / bytesPerMB)
		total = round2(float64(gpu.TotalBytes) / bytesPerMB)
	}
	return fmt.Sprintf("%.2f MB / %.2f MB", used, total)
}

// SensorLines renders "<name>: <value>" per sensor in source order.
// Float readings are rounded to two decimals; other kinds pass through.
func SensorLines(sensors []models.SensorReading) []string {
	lines := make([]string, 0, len(sensors))
	for _, s := range sensors {
		lines = append(lines, s.Name+": "+FormatSensorValue(s.Value))
	}
	return lines
}

// FormatSensorValue applies the float rounding rule to one reading
func FormatSensorValue(v models.SensorValue) string {
	if f, ok := v.Float(); ok {
		return formatRounded(f)
	}
	return v.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatRounded(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(round2(v), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
