// Package detection runs a YOLO network on BGR frames and hands back the raw
// output tensor together with the letterbox used to build the input.
package detection

import (
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-sargan/pkg/guidance"
	"gocv.io/x/gocv"
)

// Output is one forward pass.
type Output struct {
	// Tensor is the flattened [N, 5+classes] prediction block, owned by
	// the caller.
	Tensor    []float32
	Letterbox guidance.Letterbox
	Duration  time.Duration
}

// Engine is the interface for inference backends
type Engine interface {
	// Infer letterboxes frame, runs the network and returns its output
	Infer(frame gocv.Mat) (Output, error)

	// Close releases resources
	Close() error
}

// Runtimes
const (
	RuntimeDNN = "dnn"
	RuntimeORT = "ort"
)

// Targets
const (
	TargetCPU    = "cpu"
	TargetCUDA   = "cuda"
	TargetOpenCL = "opencl"
)

// Config holds engine configuration
type Config struct {
	ModelPath string `json:"model" yaml:"model"`
	Runtime   string `json:"runtime" yaml:"runtime"` // dnn or ort
	Target    string `json:"target" yaml:"target"`   // cpu, cuda or opencl
	InputSize int    `json:"input_size" yaml:"input_size"`

	// Classes fixes the output shape for runtimes that preallocate it.
	Classes int `json:"classes" yaml:"classes"`

	// LibraryPath is the onnxruntime shared library; empty picks a
	// per-platform default.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	Threads     int    `json:"threads" yaml:"threads"`
}

// DefaultConfig returns defaults for YOLOv5s on COCO.
func DefaultConfig() Config {
	return Config{
		ModelPath: "nn/yolov5s.onnx",
		Runtime:   RuntimeDNN,
		Target:    TargetCUDA,
		InputSize: guidance.DefaultInputSize,
		Classes:   len(COCOClasses),
		Threads:   1,
	}
}

// Validate returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.ModelPath == "" {
		errors = append(errors, "model path must not be empty")
	}
	if c.Runtime != RuntimeDNN && c.Runtime != RuntimeORT {
		errors = append(errors, "runtime must be dnn or ort")
	}
	if c.Target != TargetCPU && c.Target != TargetCUDA && c.Target != TargetOpenCL {
		errors = append(errors, "target must be cpu, cuda or opencl")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		errors = append(errors, "input_size must be a positive multiple of 32")
	}
	if c.Classes < 1 {
		errors = append(errors, "classes must be at least 1")
	}
	if c.Threads < 0 {
		errors = append(errors, "threads must not be negative")
	}

	return errors
}

// Candidates returns the number of predictions a three-head YOLOv5 model
// emits for a size x size input (strides 8, 16 and 32, three anchors each).
func Candidates(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		g := size / stride
		n += 3 * g * g
	}
	return n
}

// Open creates the engine selected by cfg.Runtime.
func Open(cfg Config) (Engine, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("detection: invalid config: %v", errs)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, guidance.ModelLoadError(cfg.ModelPath, err)
	}

	switch cfg.Runtime {
	case RuntimeORT:
		return NewORT(cfg)
	default:
		return NewDNN(cfg)
	}
}
