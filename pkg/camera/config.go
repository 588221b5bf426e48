// Package camera provides frame sources and runtime-configurable capture
// settings for the guidance loop.
package camera

import (
	"strconv"
	"strings"
)

// Config holds the capture and streaming parameters.
// Quality and Framerate can be changed at runtime through the Manager.
type Config struct {
	// === Source ===
	// Device is a capture index ("0"), a file path or a stream URL.
	Device string `json:"device" yaml:"device"`

	// API selects the OpenCV capture backend.
	// Values: "any", "v4l2", "gstreamer", "dshow", "ffmpeg"
	API string `json:"api" yaml:"api"`

	// === Format ===
	Width     int `json:"width" yaml:"width"`         // Requested frame width in pixels, 0 keeps the driver default
	Height    int `json:"height" yaml:"height"`       // Requested frame height in pixels, 0 keeps the driver default
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS
	Quality   int `json:"quality" yaml:"quality"`     // JPEG quality 1-100 for streamed frames

	// BufferSize is the driver frame queue length. 1 trades throughput
	// for the freshest frame; 0 keeps the driver default.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
}

// Limits
const (
	MaxWidth     = 7680
	MaxHeight    = 4320
	MaxFramerate = 240
)

// DefaultConfig returns the configuration of the reference rig:
// first capture device, VGA at 30 FPS, JPEG quality 90.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		API:       "any",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   90,
	}
}

// DeviceIndex returns the numeric capture index if Device is one.
func (c *Config) DeviceIndex() (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Device))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if strings.TrimSpace(c.Device) == "" {
		errors = append(errors, "device must not be empty")
	}

	validAPIs := map[string]bool{"": true, "any": true, "v4l2": true, "gstreamer": true, "dshow": true, "ffmpeg": true}
	if !validAPIs[c.API] {
		errors = append(errors, "api must be any, v4l2, gstreamer, dshow or ffmpeg")
	}

	if c.Width < 0 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 0 and 7680")
	}
	if c.Height < 0 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 0 and 4320")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 240")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.BufferSize < 0 {
		errors = append(errors, "buffer_size must not be negative")
	}

	return errors
}
