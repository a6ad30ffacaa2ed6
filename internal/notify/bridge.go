package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnknownAction is returned by Trigger for an action nobody handles.
var ErrUnknownAction = errors.New("notify: unknown indicator action")

// Titles shown on the indicator per state.
const (
	TitleConnected    = "Tunnel connected"
	TitleConnecting   = "Tunnel connecting"
	TitleDisconnected = "Tunnel disconnected"
)

// Bridge turns session callbacks into indicator updates and broadcasts, and
// routes indicator actions back to the session.
type Bridge struct {
	indicator   Indicator
	broadcaster *Broadcaster
	logger      *slog.Logger

	mu      sync.Mutex
	actions map[string]func()
	closed  bool
}

// NewBridge creates a Bridge. The indicator may be nil.
func NewBridge(indicator Indicator, broadcaster *Broadcaster, logger *slog.Logger) *Bridge {
	return &Bridge{
		indicator:   indicator,
		broadcaster: broadcaster,
		logger:      logger,
		actions:     make(map[string]func()),
	}
}

// Broadcaster returns the bridge's broadcaster.
func (b *Bridge) Broadcaster() *Broadcaster { return b.broadcaster }

// Handle registers fn for the indicator action id, replacing any previous
// handler.
func (b *Bridge) Handle(id string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions[id] = fn
}

// Trigger runs the handler registered for id.
func (b *Bridge) Trigger(id string) error {
	b.mu.Lock()
	fn, ok := b.actions[id]
	b.mu.Unlock()
	if !ok || fn == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}

	b.logger.Info("indicator action triggered",
		"component", "notify",
		"action", id,
	)
	fn()
	return nil
}

// OnStateChanged updates the indicator and broadcasts a status event.
func (b *Bridge) OnStateChanged(state, duration, downloadRate, uploadRate string) Event {
	e := b.broadcaster.Publish(Event{
		Kind:         KindStatus,
		State:        state,
		Duration:     duration,
		DownloadRate: downloadRate,
		UploadRate:   uploadRate,
	})
	b.show(Status{
		Title:     titleFor(state),
		Text:      downloadRate + " • " + uploadRate,
		State:     state,
		Duration:  duration,
		Actions:   []Action{DisconnectAction},
		UpdatedAt: e.Time,
	})
	return e
}

// OnDisconnected broadcasts a disconnected event with default values.
func (b *Bridge) OnDisconnected() Event {
	e := b.broadcaster.Publish(DefaultEvent(KindDisconnected))
	b.show(Status{
		Title:     TitleDisconnected,
		Text:      DefaultDownloadRate + " • " + DefaultUploadRate,
		State:     DefaultState,
		Duration:  DefaultDuration,
		Actions:   []Action{DisconnectAction},
		UpdatedAt: e.Time,
	})
	return e
}

// Close cancels the indicator. Later updates only broadcast.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if b.indicator == nil {
		return nil
	}
	if err := b.indicator.Cancel(); err != nil {
		return fmt.Errorf("notify: close: %w", err)
	}
	return nil
}

// show updates the indicator; failures are logged only. The lock keeps a
// concurrent Close from racing the write.
func (b *Bridge) show(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.indicator == nil {
		return
	}

	if err := b.indicator.Show(s); err != nil {
		b.logger.Warn("indicator update failed",
			"component", "notify",
			"error", err,
		)
	}
}

func titleFor(state string) string {
	switch state {
	case "CONNECTED":
		return TitleConnected
	case "CONNECTING":
		return TitleConnecting
	default:
		return TitleDisconnected
	}
}
