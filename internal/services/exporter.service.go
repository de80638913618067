package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sysmonitor/internal/models"
)

const metricsNamespace = "sysmonitor"

// SnapshotReader is the read side of the snapshot store
type SnapshotReader interface {
	Latest() *models.Snapshot
}

// SnapshotExporter exposes the latest snapshot as Prometheus gauges. It
// reads the store at scrape time, so it never lags or double-counts.
// Absent readings are simply not emitted.
type SnapshotExporter struct {
	store SnapshotReader

	cpu      *prometheus.Desc
	memory   *prometheus.Desc
	gpuUsed  *prometheus.Desc
	gpuTotal *prometheus.Desc
	sensor   *prometheus.Desc
	seq      *prometheus.Desc
}

// NewSnapshotExporter creates a collector over the store
func NewSnapshotExporter(store SnapshotReader) *SnapshotExporter {
	return &SnapshotExporter{
		store: store,
		cpu: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "cpu_percent"),
			"Host CPU utilization in percent.", nil, nil),
		memory: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "memory_percent"),
			"Host memory usage in percent.", nil, nil),
		gpuUsed: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "gpu", "memory_used_bytes"),
			"GPU memory in use.", nil, nil),
		gpuTotal: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "gpu", "memory_total_bytes"),
			"Total GPU memory.", nil, nil),
		sensor: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "sensor_value"),
			"Numeric hardware sensor reading.", []string{"sensor"}, nil),
		seq: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "snapshot_seq"),
			"Sequence number of the latest snapshot.", nil, nil),
	}
}

// Describe implements prometheus.Collector
func (e *SnapshotExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.cpu
	ch <- e.memory
	ch <- e.gpuUsed
	ch <- e.gpuTotal
	ch <- e.sensor
	ch <- e.seq
}

// Collect implements prometheus.Collector
func (e *SnapshotExporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.store.Latest()
	ch <- prometheus.MustNewConstMetric(e.seq, prometheus.GaugeValue, float64(snap.Seq))

	if snap.CPUPercent != nil {
		ch <- prometheus.MustNewConstMetric(e.cpu, prometheus.GaugeValue, *snap.CPUPercent)
	}
	if snap.MemoryPercent != nil {
		ch <- prometheus.MustNewConstMetric(e.memory, prometheus.GaugeValue, *snap.MemoryPercent)
	}
	if snap.GPU != nil {
		ch <- prometheus.MustNewConstMetric(e.gpuUsed, prometheus.GaugeValue, float64(snap.GPU.UsedBytes))
		ch <- prometheus.MustNewConstMetric(e.gpuTotal, prometheus.GaugeValue, float64(snap.GPU.TotalBytes))
	}
	for _, reading := range snap.Sensors {
		if v, ok := reading.Value.Numeric(); ok {
			ch <- prometheus.MustNewConstMetric(e.sensor, prometheus.GaugeValue, v, reading.Name)
		}
	}
}

// NewRegistry returns a registry holding the exporter plus the Go and
// process collectors.
func NewRegistry(exporter *SnapshotExporter) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		exporter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
