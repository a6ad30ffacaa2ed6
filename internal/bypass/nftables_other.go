//go:build !linux

package bypass

import "log/slog"

// NftablesExcluder is a stub on non-Linux platforms. It accepts an empty
// exclusion list and rejects anything else.
type NftablesExcluder struct {
	logger *slog.Logger
}

// NewNftablesExcluder returns a stub excluder.
func NewNftablesExcluder(logger *slog.Logger) *NftablesExcluder {
	return &NftablesExcluder{logger: logger}
}

func (e *NftablesExcluder) Apply(apps []string, _ uint32) error {
	if len(apps) == 0 {
		return nil
	}
	return ErrUnsupported
}

func (e *NftablesExcluder) Clear() error { return nil }
