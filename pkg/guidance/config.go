// Package guidance turns raw detector output into a steering command.
//
// The pipeline is pure and synchronous: decode the network tensor into
// candidates, suppress overlapping candidates, pick the largest remaining
// detection as the target, and convert its horizontal position into an
// angle and a LEFT/RIGHT/HOLD decision around a central dead-zone.
package guidance

import "fmt"

// Config holds the pipeline thresholds and sight geometry.
type Config struct {
	// === Thresholds ===
	ScoreThreshold      float64 `json:"score_threshold" yaml:"score_threshold"`           // Minimum objectness*class score kept by the filter
	NMSThreshold        float64 `json:"nms_threshold" yaml:"nms_threshold"`               // IoU at or above which a box is suppressed
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"` // Minimum objectness emitted by the decoder

	// === Network ===
	InputSize int `json:"input_size" yaml:"input_size"` // Square network input in pixels

	// === Sight ===
	// CameraFOV is the horizontal field of view in degrees.
	// Device specific: recalibrate for every physical camera.
	CameraFOV float64 `json:"camera_fov" yaml:"camera_fov"`

	// SightHalfWidth is the dead-zone half-width in pixels.
	SightHalfWidth int `json:"sight_half_width" yaml:"sight_half_width"`
}

// Defaults
const (
	DefaultScoreThreshold      = 0.50
	DefaultNMSThreshold        = 0.45
	DefaultConfidenceThreshold = 0.45
	DefaultInputSize           = 640
	DefaultCameraFOV           = 80.0
	DefaultSightHalfWidth      = 50
)

// DefaultConfig returns the production thresholds for YOLOv5s at 640x640.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:      DefaultScoreThreshold,
		NMSThreshold:        DefaultNMSThreshold,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		InputSize:           DefaultInputSize,
		CameraFOV:           DefaultCameraFOV,
		SightHalfWidth:      DefaultSightHalfWidth,
	}
}

// NarrowConfig is tuned for a 60 degree lens.
func NarrowConfig() Config {
	cfg := DefaultConfig()
	cfg.CameraFOV = 60
	return cfg
}

// Validate checks that values are within usable ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		errors = append(errors, "score_threshold must be between 0 and 1")
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		errors = append(errors, "nms_threshold must be between 0 and 1")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errors = append(errors, "confidence_threshold must be between 0 and 1")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		errors = append(errors, fmt.Sprintf("input_size must be a positive multiple of 32, got %d", c.InputSize))
	}
	if c.CameraFOV <= 0 || c.CameraFOV >= 180 {
		errors = append(errors, "camera_fov must be between 0 and 180 degrees")
	}
	if c.SightHalfWidth < 0 {
		errors = append(errors, "sight_half_width must not be negative")
	}

	return errors
}
