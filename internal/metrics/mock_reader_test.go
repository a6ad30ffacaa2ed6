package metrics

import (
	"context"
	"sync"
)

// mockCounterReader returns queued readings in order; the last reading
// repeats once the queue is drained.
type mockCounterReader struct {
	mu       sync.Mutex
	readings []reading
	calls    int
}

type reading struct {
	c   Counters
	err error
}

func (m *mockCounterReader) push(rx, tx int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, reading{c: Counters{RxBytes: rx, TxBytes: tx}})
}

func (m *mockCounterReader) pushErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, reading{err: err})
}

func (m *mockCounterReader) ReadCounters(ctx context.Context) (Counters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.readings) == 0 {
		return Counters{}, nil
	}
	r := m.readings[0]
	if len(m.readings) > 1 {
		m.readings = m.readings[1:]
	}
	return r.c, r.err
}
