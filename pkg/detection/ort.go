package detection

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/teslashibe/go-sargan/internal/log"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initORT loads the onnxruntime shared library once per process.
func initORT(libPath string) error {
	ortOnce.Do(func() {
		if libPath == "" {
			libPath = defaultORTLibrary()
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			ortErr = fmt.Errorf("detection: onnxruntime init (%s): %w", libPath, err)
		}
	})
	return ortErr
}

// ShutdownORT tears down the onnxruntime environment if it was started.
func ShutdownORT() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func defaultORTLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

// ORT runs an ONNX model through onnxruntime with preallocated tensors.
type ORT struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	size    int
	mu      sync.Mutex
}

// NewORT creates a session for a model with input "images" [1,3,S,S] and
// output "output0" [1,N,5+classes].
func NewORT(cfg Config) (*ORT, error) {
	if err := initORT(cfg.LibraryPath); err != nil {
		return nil, err
	}

	s := int64(cfg.InputSize)
	input, err := ort.NewTensor(ort.NewShape(1, 3, s, s), make([]float32, 3*s*s))
	if err != nil {
		return nil, fmt.Errorf("detection: input tensor: %w", err)
	}

	outShape := ort.NewShape(1, int64(Candidates(cfg.InputSize)), int64(guidance.Stride(cfg.Classes)))
	output, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("detection: output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("detection: session options: %w", err)
	}
	defer options.Destroy()

	if cfg.Threads > 0 {
		options.SetIntraOpNumThreads(cfg.Threads)
		options.SetInterOpNumThreads(1)
	}
	if cfg.Target == TargetCUDA {
		if err := appendCUDA(options); err != nil {
			log.Warn("CUDA execution provider unavailable, using CPU", "error", err)
		}
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"images"}, []string{"output0"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, guidance.ModelLoadError(cfg.ModelPath, err)
	}

	log.Info("ORT engine ready", "model", cfg.ModelPath, "input", cfg.InputSize, "output", outShape.String())

	return &ORT{session: session, input: input, output: output, size: cfg.InputSize}, nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cuda.Destroy()
	return options.AppendExecutionProviderCUDA(cuda)
}

// Infer runs one forward pass on frame.
func (e *ORT) Infer(frame gocv.Mat) (Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if frame.Empty() {
		return Output{}, &guidance.FrameError{Width: frame.Cols(), Height: frame.Rows()}
	}
	start := time.Now()

	img, err := frame.ToImage()
	if err != nil {
		return Output{}, fmt.Errorf("detection: convert frame: %w", err)
	}

	canvas, lb, err := LetterboxImage(img, e.size)
	if err != nil {
		return Output{}, err
	}
	fillCHW(e.input.GetData(), canvas)

	if err := e.session.Run(); err != nil {
		return Output{}, fmt.Errorf("detection: run: %w", err)
	}

	src := e.output.GetData()
	tensor := make([]float32, len(src))
	copy(tensor, src)

	return Output{Tensor: tensor, Letterbox: lb, Duration: time.Since(start)}, nil
}

// Close destroys the session and its tensors.
func (e *ORT) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.session.Destroy()
	e.input.Destroy()
	e.output.Destroy()
	return err
}
