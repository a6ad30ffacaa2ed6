package metrics

import (
	"context"
	"errors"
	"math"

	"github.com/shirou/gopsutil/v4/net"
)

// ioCountersFunc matches net.IOCountersWithContext.
type ioCountersFunc func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)

// SystemCounterReader reads host-wide counters summed over all interfaces.
type SystemCounterReader struct {
	ioCounters ioCountersFunc
}

// NewSystemCounterReader returns a reader backed by gopsutil.
func NewSystemCounterReader() *SystemCounterReader {
	return &SystemCounterReader{ioCounters: net.IOCountersWithContext}
}

// ReadCounters implements CounterReader.
func (r *SystemCounterReader) ReadCounters(ctx context.Context) (Counters, error) {
	stats, err := r.ioCounters(ctx, false)
	if err != nil {
		return Counters{}, &TelemetryReadError{Source: SourceSystem, Err: err}
	}
	if len(stats) == 0 {
		return Counters{}, &TelemetryReadError{Source: SourceSystem, Err: errors.New("no counters reported")}
	}

	var rx, tx uint64
	for _, s := range stats {
		rx += s.BytesRecv
		tx += s.BytesSent
	}
	if rx > math.MaxInt64 || tx > math.MaxInt64 {
		return Counters{}, &TelemetryReadError{Source: SourceSystem, Err: errors.New("counter overflow")}
	}
	return Counters{RxBytes: int64(rx), TxBytes: int64(tx)}, nil
}
