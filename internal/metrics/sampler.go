package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Sample is the result of one telemetry tick.
type Sample struct {
	UptimeSeconds int64
	RxDeltaBytes  int64
	TxDeltaBytes  int64
	// Cumulative counters after the tick.
	RxTotalBytes int64
	TxTotalBytes int64
}

// Sampler keeps the uptime counter and the previous cumulative counters
// between ticks. Deltas are never negative: a counter that goes backwards
// yields a zero delta and becomes the new baseline.
type Sampler struct {
	reader CounterReader
	logger *slog.Logger

	mu     sync.Mutex
	uptime int64
	last   Counters
	primed bool
}

// NewSampler creates a Sampler reading from reader.
func NewSampler(reader CounterReader, logger *slog.Logger) *Sampler {
	return &Sampler{reader: reader, logger: logger}
}

// Reset zeroes the uptime and forgets the baseline.
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uptime = 0
	s.last = Counters{}
	s.primed = false
}

// Prime resets the sampler and captures the current counters as baseline.
// If the read fails the first tick establishes the baseline instead.
func (s *Sampler) Prime(ctx context.Context) {
	s.Reset()

	c, err := s.read(ctx)
	if err != nil {
		s.logReadError(err)
		return
	}

	s.mu.Lock()
	s.last = c
	s.primed = true
	s.mu.Unlock()
}

// Tick advances the uptime by one second and computes the deltas since the
// previous tick.
func (s *Sampler) Tick(ctx context.Context) Sample {
	c, err := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uptime++
	if err != nil {
		s.logReadError(err)
		if !s.primed {
			return Sample{UptimeSeconds: s.uptime}
		}
		c = s.last
	}
	if !s.primed {
		s.last = c
		s.primed = true
	}

	sample := Sample{
		UptimeSeconds: s.uptime,
		RxDeltaBytes:  max(0, c.RxBytes-s.last.RxBytes),
		TxDeltaBytes:  max(0, c.TxBytes-s.last.TxBytes),
		RxTotalBytes:  c.RxBytes,
		TxTotalBytes:  c.TxBytes,
	}
	s.last = c
	return sample
}

// Snapshot returns the current uptime with zero deltas.
func (s *Sampler) Snapshot() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample{
		UptimeSeconds: s.uptime,
		RxTotalBytes:  s.last.RxBytes,
		TxTotalBytes:  s.last.TxBytes,
	}
}

// read returns a TelemetryReadError for failed reads and negative values.
func (s *Sampler) read(ctx context.Context) (Counters, error) {
	c, err := s.reader.ReadCounters(ctx)
	if err != nil {
		var tre *TelemetryReadError
		if errors.As(err, &tre) {
			return Counters{}, err
		}
		return Counters{}, &TelemetryReadError{Source: "counter", Err: err}
	}
	if c.RxBytes < 0 || c.TxBytes < 0 {
		return Counters{}, &TelemetryReadError{
			Source: "counter",
			Err:    fmt.Errorf("negative counters rx=%d tx=%d", c.RxBytes, c.TxBytes),
		}
	}
	return c, nil
}

func (s *Sampler) logReadError(err error) {
	s.logger.Debug("telemetry read failed, reusing previous counters",
		"component", "metrics",
		"error", err,
	)
}
