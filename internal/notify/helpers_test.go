package notify

import (
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockIndicator records every status shown.
type mockIndicator struct {
	mu        sync.Mutex
	shown     []Status
	cancelled int
	showErr   error
	cancelErr error
}

func (m *mockIndicator) Show(s Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, s)
	return m.showErr
}

func (m *mockIndicator) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
	return m.cancelErr
}

func (m *mockIndicator) last() (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.shown) == 0 {
		return Status{}, false
	}
	return m.shown[len(m.shown)-1], true
}
