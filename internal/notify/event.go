// Package notify fans session status out to observers: a broadcast channel
// for subscribers and a persistent indicator that doubles as a control.
package notify

import "time"

// Topic names the status broadcast stream.
const Topic = "STATS_BROADCAST"

// Event kinds.
const (
	// KindStatus is a regular state or telemetry update.
	KindStatus = "status"
	// KindDisconnected marks a clean reset after a session ended.
	KindDisconnected = "disconnected"
)

// Default values carried by disconnect events and by the initial state.
const (
	DefaultState        = "DISCONNECTED"
	DefaultDuration     = "00:00:00"
	DefaultDownloadRate = "↓ 00 b/s"
	DefaultUploadRate   = "↑ 00 b/s"
)

// Event is one broadcast on Topic.
type Event struct {
	Kind         string    `json:"kind"`
	Seq          uint64    `json:"seq"`
	State        string    `json:"state"`
	Duration     string    `json:"duration"`
	DownloadRate string    `json:"download_rate"`
	UploadRate   string    `json:"upload_rate"`
	Time         time.Time `json:"time"`
}

// DefaultEvent returns an event of the given kind carrying the default values.
func DefaultEvent(kind string) Event {
	return Event{
		Kind:         kind,
		State:        DefaultState,
		Duration:     DefaultDuration,
		DownloadRate: DefaultDownloadRate,
		UploadRate:   DefaultUploadRate,
	}
}

// IsDefault reports whether e carries the default values, ignoring kind,
// sequence and time.
func (e Event) IsDefault() bool {
	return e.State == DefaultState &&
		e.Duration == DefaultDuration &&
		e.DownloadRate == DefaultDownloadRate &&
		e.UploadRate == DefaultUploadRate
}
