package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plexsphere/wgsession/internal/fsutil"
)

// ActionDisconnect is the ID of the action every indicator carries.
const ActionDisconnect = "disconnect"

// ActionStop is accepted as an alias of ActionDisconnect.
const ActionStop = "stop"

// Action is a control exposed on the indicator.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DisconnectAction stops the session when triggered.
var DisconnectAction = Action{ID: ActionDisconnect, Label: "Disconnect"}

// Status is what an indicator displays.
type Status struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	State     string    `json:"state"`
	Duration  string    `json:"duration"`
	Actions   []Action  `json:"actions"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Indicator is a persistent, user-visible status display.
type Indicator interface {
	Show(s Status) error
	Cancel() error
}

// FileIndicator writes the status as JSON to a file that other tools can
// poll. Cancel removes the file.
type FileIndicator struct {
	path string
}

// NewFileIndicator returns an indicator writing to path.
func NewFileIndicator(path string) *FileIndicator {
	return &FileIndicator{path: path}
}

// Path returns the status file path.
func (f *FileIndicator) Path() string { return f.path }

func (f *FileIndicator) Show(s Status) error {
	if err := fsutil.WriteJSONAtomic(f.path, s, 0o644); err != nil {
		return fmt.Errorf("notify: file indicator: %w", err)
	}
	return nil
}

func (f *FileIndicator) Cancel() error {
	if err := fsutil.RemoveIfExists(f.path); err != nil {
		return fmt.Errorf("notify: file indicator: cancel: %w", err)
	}
	return nil
}

// LogIndicator writes each status change as a log record.
type LogIndicator struct {
	logger *slog.Logger
	last   string
}

// NewLogIndicator returns an indicator logging to logger.
func NewLogIndicator(logger *slog.Logger) *LogIndicator {
	return &LogIndicator{logger: logger}
}

// Show logs s at info level when the title changes and at debug level for
// telemetry-only updates.
func (l *LogIndicator) Show(s Status) error {
	level := slog.LevelDebug
	if s.Title != l.last {
		level = slog.LevelInfo
		l.last = s.Title
	}
	l.logger.Log(context.Background(), level, s.Title,
		"component", "notify",
		"state", s.State,
		"duration", s.Duration,
		"text", s.Text,
	)
	return nil
}

func (l *LogIndicator) Cancel() error {
	l.logger.Info("indicator removed", "component", "notify")
	l.last = ""
	return nil
}

// MultiIndicator forwards to several indicators and joins their errors.
type MultiIndicator []Indicator

func (m MultiIndicator) Show(s Status) error {
	var errs []error
	for _, ind := range m {
		if err := ind.Show(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiIndicator) Cancel() error {
	var errs []error
	for _, ind := range m {
		if err := ind.Cancel(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewIndicator builds the indicator selected by cfg.
func NewIndicator(cfg Config, logger *slog.Logger) (Indicator, error) {
	switch cfg.Indicator {
	case IndicatorFile:
		return NewFileIndicator(cfg.StatusFile), nil
	case IndicatorLog:
		return NewLogIndicator(logger), nil
	case IndicatorBoth:
		return MultiIndicator{NewFileIndicator(cfg.StatusFile), NewLogIndicator(logger)}, nil
	default:
		return nil, fmt.Errorf("notify: unknown indicator %q", cfg.Indicator)
	}
}
