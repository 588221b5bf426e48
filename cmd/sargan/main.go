// Sargan - camera target guidance
// Detects objects with a YOLO network, picks the largest one and streams
// LEFT/RIGHT/HOLD steering commands with an annotated MJPEG feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-sargan/internal/config"
	"github.com/teslashibe/go-sargan/internal/log"
	"github.com/teslashibe/go-sargan/pkg/camera"
	"github.com/teslashibe/go-sargan/pkg/detection"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	"github.com/teslashibe/go-sargan/pkg/telemetry"
	"github.com/teslashibe/go-sargan/pkg/tracking"
	"github.com/teslashibe/go-sargan/pkg/web"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.InitWith(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("sargan stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func parseFlags() (config.File, error) {
	def := config.Default()

	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before SARGAN_* variables are read")
	model := flag.String("model", def.Detection.ModelPath, "ONNX model path")
	classes := flag.String("classes", "", "Class names file, one per line (default: built-in COCO)")
	backend := flag.String("backend", def.Detection.Runtime, "Inference runtime: dnn or ort")
	target := flag.String("target", def.Detection.Target, "Inference target: cpu, cuda or opencl")
	ortLib := flag.String("ort-lib", "", "onnxruntime shared library path")
	device := flag.String("device", def.Camera.Device, "Capture index, video file or stream URL")
	snapshotURL := flag.String("snapshot-url", "", "Poll a JPEG snapshot endpoint instead of opening a capture device")
	fov := flag.Float64("fov", def.Guidance.CameraFOV, "Horizontal camera field of view in degrees")
	sight := flag.Int("sight", def.Guidance.SightHalfWidth, "Dead-zone half-width in pixels")
	port := flag.Int("port", 8080, "HTTP port")
	path := flag.String("path", def.Web.StreamPath, "MJPEG stream route")
	quality := flag.Int("quality", def.Camera.Quality, "JPEG quality of streamed frames")
	journal := flag.String("journal", "", "Append command log to this file")
	logLevel := flag.String("log-level", def.Log.Level, "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", def.Log.Format, "Log format: text or json")
	maxFrames := flag.Uint64("max-frames", 0, "Stop after this many frames (0 = unbounded)")
	labels := flag.Bool("labels", def.Tracking.Labels, "Draw class and confidence next to each box")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		return def, err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Detection.ModelPath = *model
		case "classes":
			cfg.Classes = *classes
		case "backend":
			cfg.Detection.Runtime = *backend
		case "target":
			cfg.Detection.Target = *target
		case "ort-lib":
			cfg.Detection.LibraryPath = *ortLib
		case "device":
			cfg.Camera.Device = *device
		case "snapshot-url":
			cfg.SnapshotURL = *snapshotURL
		case "fov":
			cfg.Guidance.CameraFOV = *fov
		case "sight":
			cfg.Guidance.SightHalfWidth = *sight
		case "port":
			cfg.Web.Addr = fmt.Sprintf(":%d", *port)
		case "path":
			cfg.Web.StreamPath = *path
		case "quality":
			cfg.Camera.Quality = *quality
		case "journal":
			cfg.Journal = *journal
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "max-frames":
			cfg.Tracking.MaxFrames = *maxFrames
		case "labels":
			cfg.Tracking.Labels = *labels
		}
	})

	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.File) error {
	catalog := detection.COCOCatalog()
	if cfg.Classes != "" {
		c, err := guidance.LoadCatalog(cfg.Classes)
		if err != nil {
			return err
		}
		catalog = c
	}
	cfg.Detection.Classes = catalog.Len()

	pipeline, err := guidance.NewPipeline(cfg.Guidance, catalog)
	if err != nil {
		return err
	}

	engine, err := detection.Open(cfg.Detection)
	if err != nil {
		return err
	}
	defer engine.Close()
	if cfg.Detection.Runtime == detection.RuntimeORT {
		defer detection.ShutdownORT()
	}

	manager := camera.NewManager(cfg.Camera)
	var source camera.Source
	if cfg.SnapshotURL != "" {
		source = camera.NewSnapshotSource(cfg.SnapshotURL, cfg.Camera.Framerate)
	} else {
		capture, err := camera.OpenCapture(cfg.Camera)
		if err != nil {
			return err
		}
		manager.OnConfigChange = capture.Apply
		source = capture
	}
	defer source.Close()

	journal, err := telemetry.NewJournal(os.Stdout, cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	metrics := telemetry.NewMetrics()
	go func() {
		if err := metrics.SampleProcess(ctx, 5*time.Second); err != nil {
			log.Warn("process sampling disabled", "error", err)
		}
	}()

	server := web.NewServer(web.Options{
		Addr:       cfg.Web.Addr,
		StreamPath: cfg.Web.StreamPath,
		Camera:     manager,
		Metrics:    metrics,
		Config: func() any {
			current := cfg
			current.Camera = manager.GetConfig()
			return current
		},
	})

	tracker := tracking.New(cfg.Tracking, source, engine, pipeline)
	tracker.SetCamera(manager)
	tracker.SetJournal(journal)
	tracker.SetMetrics(metrics)
	tracker.SetPublisher(server)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		err := server.Run(ctx)
		if err != nil {
			cancel()
		}
		serverErr <- err
	}()

	log.Info("sargan started",
		"session", tracker.Session(),
		"model", cfg.Detection.ModelPath,
		"runtime", cfg.Detection.Runtime,
		"classes", catalog.Len(),
		"stream", "http://localhost"+cfg.Web.Addr+cfg.Web.StreamPath)

	err = tracker.Run(ctx)
	cancel()
	if serr := <-serverErr; err == nil {
		err = serr
	}

	log.Info("sargan stopped", "frames", tracker.Frames())
	return err
}
