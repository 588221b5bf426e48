package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-sargan/internal/log"
	"github.com/teslashibe/go-sargan/pkg/camera"
	"github.com/teslashibe/go-sargan/pkg/detection"
	"github.com/teslashibe/go-sargan/pkg/guidance"
	"github.com/teslashibe/go-sargan/pkg/overlay"
	"github.com/teslashibe/go-sargan/pkg/telemetry"
	"gocv.io/x/gocv"
)

// ErrTooManyErrors is returned when MaxConsecutiveErrors frames fail in a row.
var ErrTooManyErrors = errors.New("tracking: too many consecutive frame errors")

// Publisher receives annotated frames and reports, e.g. the web server.
type Publisher interface {
	PublishFrame(jpeg []byte)
	PublishReport(r telemetry.Report)
	AddLog(logType, message string)
}

// Tracker drives one source through detection and guidance.
type Tracker struct {
	config   Config
	source   camera.Source
	engine   detection.Engine
	pipeline *guidance.Pipeline

	camera    *camera.Manager
	journal   *telemetry.Journal
	metrics   *telemetry.Metrics
	publisher Publisher

	session string
	seq     uint64
	log     *slog.Logger
}

// New creates a tracker. Optional collaborators are attached with the
// Set methods before Run.
func New(config Config, source camera.Source, engine detection.Engine, pipeline *guidance.Pipeline) *Tracker {
	session := uuid.NewString()
	return &Tracker{
		config:   config,
		source:   source,
		engine:   engine,
		pipeline: pipeline,
		session:  session,
		log:      log.Component("tracking").With("session", session),
	}
}

// SetCamera sets the manager that supplies the stream JPEG quality.
func (t *Tracker) SetCamera(m *camera.Manager) { t.camera = m }

// SetJournal sets the command journal.
func (t *Tracker) SetJournal(j *telemetry.Journal) { t.journal = j }

// SetMetrics sets the metrics sink.
func (t *Tracker) SetMetrics(m *telemetry.Metrics) { t.metrics = m }

// SetPublisher sets the frame and report consumer.
func (t *Tracker) SetPublisher(p Publisher) { t.publisher = p }

// Session returns the run identifier attached to every report.
func (t *Tracker) Session() string {
	return t.session
}

// Frames returns the number of frames processed successfully.
func (t *Tracker) Frames() uint64 {
	return t.seq
}

// Run processes frames until the source is exhausted, MaxFrames is
// reached or ctx is done. Frame errors are logged and skipped.
func (t *Tracker) Run(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()

	t.log.Info("frame loop started", "max_frames", t.config.MaxFrames)

	failures := 0
	for {
		select {
		case <-ctx.Done():
			t.log.Info("frame loop stopped", "frames", t.seq)
			return nil
		default:
		}

		if t.config.MaxFrames > 0 && t.seq >= t.config.MaxFrames {
			t.log.Info("frame limit reached", "frames", t.seq)
			return nil
		}

		err := t.source.Read(&frame)
		if errors.Is(err, camera.ErrEmptyFrame) {
			t.log.Info("end of stream", "frames", t.seq)
			return nil
		}
		if err == nil {
			_, err = t.Step(&frame)
		}
		if err == nil {
			failures = 0
			continue
		}

		failures++
		t.log.Warn("frame failed", "error", err, "consecutive", failures)
		if t.metrics != nil {
			t.metrics.FrameError()
		}
		if t.publisher != nil {
			t.publisher.AddLog("error", err.Error())
		}
		if t.config.MaxConsecutiveErrors > 0 && failures >= t.config.MaxConsecutiveErrors {
			return fmt.Errorf("%w: last: %v", ErrTooManyErrors, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(t.config.ErrorBackoff):
		}
	}
}

// Step runs one frame through the pipeline and annotates it in place.
func (t *Tracker) Step(frame *gocv.Mat) (guidance.Result, error) {
	out, err := t.engine.Infer(*frame)
	if err != nil {
		return guidance.Result{}, fmt.Errorf("infer: %w", err)
	}

	res, err := t.pipeline.Process(out.Tensor, out.Letterbox)
	if err != nil {
		return guidance.Result{}, fmt.Errorf("process: %w", err)
	}
	t.seq++

	w, h := frame.Cols(), frame.Rows()
	status := telemetry.Line(res.Command, w, h, out.Duration)

	if res.Command.HasTarget() {
		t.journal.Record(res.Command, out.Duration)
		if t.publisher != nil {
			t.publisher.AddLog("command", telemetry.CommandLine(res.Command, out.Duration))
		}
	}
	if t.metrics != nil {
		t.metrics.Observe(res, out.Duration)
	}

	t.log.Debug("frame",
		"seq", t.seq,
		"detections", len(res.Detections),
		"direction", res.Command.Direction,
		"angle", res.Command.Angle,
		"inference_ms", telemetry.Millis(out.Duration))

	if t.publisher == nil {
		return res, nil
	}

	overlay.Draw(frame, res, overlay.Info{
		Status:         status,
		SightHalfWidth: t.pipeline.Config().SightHalfWidth,
		Labels:         t.config.Labels,
	})

	jpeg, err := t.encode(*frame)
	if err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	t.publisher.PublishFrame(jpeg)
	t.publisher.PublishReport(telemetry.NewReport(t.session, t.seq, res, w, h, out.Duration))

	return res, nil
}

func (t *Tracker) encode(img gocv.Mat) ([]byte, error) {
	quality := camera.DefaultConfig().Quality
	if t.camera != nil {
		quality = t.camera.Quality()
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// buf is native memory
	return append([]byte(nil), buf.GetBytes()...), nil
}
