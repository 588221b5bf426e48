package detection

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/go-sargan/internal/log"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	"gocv.io/x/gocv"
)

// DNN runs an ONNX model through the OpenCV dnn module.
type DNN struct {
	net    gocv.Net
	size   int
	target string
	mu     sync.Mutex
}

// NewDNN loads cfg.ModelPath and selects the preferred compute target.
// CUDA falls back to CPU when no NVIDIA driver is present.
func NewDNN(cfg Config) (*DNN, error) {
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, guidance.ModelLoadError(cfg.ModelPath, fmt.Errorf("empty network"))
	}

	target := cfg.Target
	if target == TargetCUDA && !hasNVIDIADriver() {
		log.Warn("CUDA requested but no NVIDIA driver found, using CPU", "model", filepath.Base(cfg.ModelPath))
		target = TargetCPU
	}

	switch target {
	case TargetCUDA:
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	case TargetOpenCL:
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetFP32) // gocv name for DNN_TARGET_OPENCL
	default:
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	log.Info("DNN engine ready", "model", cfg.ModelPath, "target", target, "input", cfg.InputSize)

	return &DNN{net: net, size: cfg.InputSize, target: target}, nil
}

// Target returns the compute target actually in use.
func (d *DNN) Target() string {
	return d.target
}

// Infer runs one forward pass on frame.
func (d *DNN) Infer(frame gocv.Mat) (Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return Output{}, &guidance.FrameError{Width: frame.Cols(), Height: frame.Rows()}
	}
	start := time.Now()

	input := gocv.NewMat()
	defer input.Close()

	lb, err := LetterboxMat(frame, &input, d.size)
	if err != nil {
		return Output{}, err
	}

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(d.size, d.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return Output{}, fmt.Errorf("detection: read output: %w", err)
	}

	// data aliases native memory released with out
	tensor := make([]float32, len(data))
	copy(tensor, data)

	return Output{Tensor: tensor, Letterbox: lb, Duration: time.Since(start)}, nil
}

// Close releases the network.
func (d *DNN) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
