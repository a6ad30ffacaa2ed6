package metrics

import (
	"context"
	"fmt"
)

// Counters holds cumulative byte counters.
type Counters struct {
	RxBytes int64
	TxBytes int64
}

// CounterReader reads cumulative rx/tx byte counters.
type CounterReader interface {
	ReadCounters(ctx context.Context) (Counters, error)
}

// TelemetryReadError reports a failed or nonsensical counter read. The
// sampler recovers from it by reusing the previous reading.
type TelemetryReadError struct {
	Source string
	Err    error
}

func (e *TelemetryReadError) Error() string {
	return fmt.Sprintf("metrics: read %s counters: %v", e.Source, e.Err)
}

func (e *TelemetryReadError) Unwrap() error { return e.Err }
