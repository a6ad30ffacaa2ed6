package session

import (
	"errors"
	"time"
)

// DefaultQueueSize is the default number of pending lifecycle requests.
const DefaultQueueSize = 8

// DefaultStopTimeout bounds the final stop on shutdown.
const DefaultStopTimeout = 10 * time.Second

// DefaultOpTimeout bounds a single start, stop or reconfigure.
const DefaultOpTimeout = 30 * time.Second

// Config holds the configuration for the session manager.
type Config struct {
	// QueueSize is the capacity of the lifecycle request queue.
	// Default: 8
	QueueSize int `yaml:"queue_size" envconfig:"QUEUE_SIZE"`

	// StopTimeout bounds the stop performed when the manager shuts down.
	// Default: 10s
	StopTimeout time.Duration `yaml:"stop_timeout" envconfig:"STOP_TIMEOUT"`

	// OpTimeout bounds each queued lifecycle operation.
	// Default: 30s
	OpTimeout time.Duration `yaml:"op_timeout" envconfig:"OP_TIMEOUT"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = DefaultOpTimeout
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.New("session: config: QueueSize must be > 0")
	}
	if c.StopTimeout < time.Second {
		return errors.New("session: config: StopTimeout must be at least 1s")
	}
	if c.OpTimeout < time.Second {
		return errors.New("session: config: OpTimeout must be at least 1s")
	}
	return nil
}
