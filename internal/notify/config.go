package notify

import (
	"fmt"
	"path/filepath"
)

// Indicator kinds.
const (
	IndicatorFile = "file"
	IndicatorLog  = "log"
	IndicatorBoth = "both"
)

// DefaultStatusFileName is the status file name under the data directory.
const DefaultStatusFileName = "status.json"

// Config holds the configuration for the persistent indicator.
type Config struct {
	// Indicator selects the indicator: "file", "log" or "both".
	// Default: "both".
	Indicator string `yaml:"indicator" envconfig:"INDICATOR"`

	// StatusFile is the path of the JSON status file written by the file
	// indicator. Default: <data_dir>/status.json (set by the agent).
	StatusFile string `yaml:"status_file" envconfig:"STATUS_FILE"`
}

// ApplyDefaults sets default values for zero-valued fields. dataDir is used to
// derive the status file path.
func (c *Config) ApplyDefaults(dataDir string) {
	if c.Indicator == "" {
		c.Indicator = IndicatorBoth
	}
	if c.StatusFile == "" && dataDir != "" {
		c.StatusFile = filepath.Join(dataDir, DefaultStatusFileName)
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	switch c.Indicator {
	case IndicatorFile, IndicatorBoth:
		if c.StatusFile == "" {
			return fmt.Errorf("notify: config: StatusFile is required for indicator %q", c.Indicator)
		}
	case IndicatorLog:
	default:
		return fmt.Errorf("notify: config: Indicator must be %q, %q or %q, got %q",
			IndicatorFile, IndicatorLog, IndicatorBoth, c.Indicator)
	}
	return nil
}
