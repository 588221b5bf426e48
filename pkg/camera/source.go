package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when the source has no more frames.
// The frame loop stops on it.
var ErrEmptyFrame = errors.New("camera: empty frame")

// Source produces BGR frames.
type Source interface {
	// Read fills dst with the next frame.
	Read(dst *gocv.Mat) error

	// Close releases resources
	Close() error
}

// Capture reads frames through an OpenCV VideoCapture.
type Capture struct {
	vc  *gocv.VideoCapture
	cfg Config
	mu  sync.Mutex
}

var captureAPIs = map[string]gocv.VideoCaptureAPI{
	"":          gocv.VideoCaptureAny,
	"any":       gocv.VideoCaptureAny,
	"v4l2":      gocv.VideoCaptureV4L2,
	"gstreamer": gocv.VideoCaptureGstreamer,
	"dshow":     gocv.VideoCaptureDshow,
	"ffmpeg":    gocv.VideoCaptureFFmpeg,
}

// OpenCapture opens the device, file or URL named by cfg.Device.
func OpenCapture(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	api := captureAPIs[cfg.API]

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, ok := cfg.DeviceIndex(); ok {
		vc, err = gocv.VideoCaptureDeviceWithAPI(id, api)
	} else {
		vc, err = gocv.VideoCaptureFileWithAPI(cfg.Device, api)
	}
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: %s not opened", cfg.Device)
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.BufferSize > 0 {
		vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}

	return &Capture{vc: vc, cfg: cfg}, nil
}

// Read fills dst with the next frame, or returns ErrEmptyFrame when the
// device or file yields nothing.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return ErrEmptyFrame
	}
	return nil
}

// Size returns the resolution reported by the driver.
func (c *Capture) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return image.Pt(
		int(c.vc.Get(gocv.VideoCaptureFrameWidth)),
		int(c.vc.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// Apply pushes runtime-tunable settings to the driver.
// It is meant to be used as Manager.OnConfigChange.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.BufferSize > 0 {
		c.vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}
	c.cfg = cfg
	return nil
}

// Close releases the capture device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}
