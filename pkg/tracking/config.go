// Package tracking runs the capture, inference and guidance loop.
package tracking

import "time"

// Config holds the frame loop parameters
type Config struct {
	// MaxFrames stops the loop after this many frames; 0 runs until the
	// source is exhausted or the context is cancelled.
	MaxFrames uint64 `json:"max_frames" yaml:"max_frames"`

	// Labels draws class and confidence next to each box.
	Labels bool `json:"labels" yaml:"labels"`

	// ErrorBackoff is the pause after a failed frame.
	ErrorBackoff time.Duration `json:"error_backoff" yaml:"error_backoff"`

	// MaxConsecutiveErrors aborts the loop after this many failed frames
	// in a row; 0 never aborts.
	MaxConsecutiveErrors int `json:"max_consecutive_errors" yaml:"max_consecutive_errors"`
}

// DefaultConfig returns an unbounded loop that keeps going through
// transient frame errors.
func DefaultConfig() Config {
	return Config{
		Labels:               true,
		ErrorBackoff:         100 * time.Millisecond,
		MaxConsecutiveErrors: 50,
	}
}

// Validate returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string
	if c.ErrorBackoff < 0 {
		errors = append(errors, "error_backoff must not be negative")
	}
	if c.MaxConsecutiveErrors < 0 {
		errors = append(errors, "max_consecutive_errors must not be negative")
	}
	return errors
}
