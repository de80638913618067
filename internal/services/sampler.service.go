package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sysmonitor/internal/models"
)

// DefaultSampleInterval is the delay between sampling cycles
const DefaultSampleInterval = 2 * time.Second

// Sampler queries every source once per cycle and publishes the result
// as one new snapshot.
type Sampler struct {
	sources  Sources
	store    *SnapshotStore
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	seq  uint64
	prev *models.Snapshot
	// unavailable tracks sources last seen as missing, so a machine without
	// a GPU logs it once instead of every cycle.
	unavailable map[string]bool
}

// NewSampler creates a sampler publishing into store
func NewSampler(sources Sources, store *SnapshotStore, interval time.Duration, log zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{
		sources:     sources,
		store:       store,
		interval:    interval,
		log:         log,
		now:         time.Now,
		prev:        models.EmptySnapshot(),
		unavailable: make(map[string]bool),
	}
}

// Run samples until ctx is cancelled. The first cycle starts immediately;
// each following cycle starts one interval after the previous one ended.
func (s *Sampler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("sampler started")
	defer func() { s.log.Info().Uint64("cycles", s.seq).Msg("sampler stopped") }()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		s.Cycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		timer.Reset(s.interval)
	}
}

// Cycle runs one sampling pass and publishes its snapshot
func (s *Sampler) Cycle(ctx context.Context) *models.Snapshot {
	start := s.now()
	prev := s.prev

	next := &models.Snapshot{}

	cpu, res := s.sample(ctx, "cpu", s.sources.CPU == nil, func() (any, error) {
		return s.sources.CPU.CPUPercent(ctx)
	})
	switch res {
	case sampled:
		next.CPUPercent = models.Float64(cpu.(float64))
	case failed:
		next.CPUPercent = prev.CPUPercent
	}

	memory, res := s.sample(ctx, "memory", s.sources.Memory == nil, func() (any, error) {
		return s.sources.Memory.MemoryPercent(ctx)
	})
	switch res {
	case sampled:
		next.MemoryPercent = models.Float64(memory.(float64))
	case failed:
		next.MemoryPercent = prev.MemoryPercent
	}

	gpu, res := s.sample(ctx, "gpu", s.sources.GPU == nil, func() (any, error) {
		return s.sources.GPU.GPUMemory(ctx)
	})
	switch res {
	case sampled:
		mem := gpu.(models.GPUMemory)
		next.GPU = &mem
	case failed:
		next.GPU = prev.GPU
	}

	sensors, res := s.sample(ctx, "sensors", s.sources.Sensors == nil, func() (any, error) {
		return s.sources.Sensors.Sensors(ctx)
	})
	switch res {
	case sampled:
		next.Sensors = models.DedupeSensors(sensors.([]models.SensorReading))
	case failed:
		next.Sensors = prev.Sensors
	}
	if next.Sensors == nil {
		next.Sensors = []models.SensorReading{}
	}

	s.seq++
	next.Seq = s.seq
	next.TakenAt = s.now()
	s.prev = next
	s.store.Publish(next)

	s.log.Debug().
		Uint64("seq", next.Seq).
		Int("sensors", len(next.Sensors)).
		Dur("took", next.TakenAt.Sub(start)).
		Msg("snapshot published")
	return next
}

type outcome int

const (
	sampled outcome = iota
	absent
	failed
)

// sample runs one source query. Unavailable sources are absent; any other
// error is a failure and the caller keeps the previous value. A source that
// was absent stays absent until it succeeds once.
func (s *Sampler) sample(ctx context.Context, name string, missing bool, query func() (any, error)) (any, outcome) {
	if missing {
		return nil, absent
	}

	v, err := safeQuery(query)
	if err == nil {
		if s.unavailable[name] {
			s.log.Info().Str("source", name).Msg("source available")
		}
		s.unavailable[name] = false
		return v, sampled
	}

	if errors.Is(err, ErrSourceUnavailable) {
		if !s.unavailable[name] {
			s.log.Info().Str("source", name).Err(err).Msg("source unavailable, reporting as absent")
		}
		s.unavailable[name] = true
		return nil, absent
	}

	if s.unavailable[name] {
		return nil, absent
	}
	if ctx.Err() == nil {
		s.log.Warn().Str("source", name).Err(err).Msg("query failed, keeping previous value")
	}
	return nil, failed
}

func safeQuery(query func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("source panicked: %v", r)
		}
	}()
	return query()
}
