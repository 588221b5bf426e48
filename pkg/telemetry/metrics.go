package telemetry

import (
	"context"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/teslashibe/go-sargan/pkg/guidance"
)

// Metrics is the Prometheus view of the frame loop.
type Metrics struct {
	registry *prometheus.Registry

	frames      prometheus.Counter
	frameErrors prometheus.Counter
	detections  prometheus.Counter
	commands    *prometheus.CounterVec
	angle       prometheus.Gauge
	inference   prometheus.Histogram
	memUsage    prometheus.Gauge
	cpuUsage    prometheus.Gauge
	clients     prometheus.Gauge
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sargan_frames_total",
			Help: "Frames processed",
		}),
		frameErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sargan_frame_errors_total",
			Help: "Frames dropped because of an error",
		}),
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sargan_detections_total",
			Help: "Detections kept after suppression",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sargan_commands_total",
			Help: "Guidance commands by direction",
		}, []string{"direction"}),
		angle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sargan_target_angle_degrees",
			Help: "Bearing of the current target",
		}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sargan_inference_seconds",
			Help:    "Network forward pass duration",
			Buckets: prometheus.ExponentialBuckets(0.002, 2, 10),
		}),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sargan_memory_usage_megabytes",
			Help: "Resident memory in megabytes",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sargan_cpu_usage_percent",
			Help: "Process CPU usage in percent",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sargan_stream_clients",
			Help: "Connected stream and dashboard clients",
		}),
	}

	m.registry.MustRegister(m.frames, m.frameErrors, m.detections, m.commands,
		m.angle, m.inference, m.memUsage, m.cpuUsage, m.clients)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe records one processed frame.
func (m *Metrics) Observe(res guidance.Result, inference time.Duration) {
	m.frames.Inc()
	m.detections.Add(float64(len(res.Detections)))
	m.inference.Observe(inference.Seconds())

	if res.Command.Target == nil {
		m.commands.WithLabelValues("NONE").Inc()
		m.angle.Set(0)
		return
	}
	m.commands.WithLabelValues(res.Command.Direction.String()).Inc()
	m.angle.Set(float64(res.Command.Angle))
}

// FrameError records a dropped frame.
func (m *Metrics) FrameError() {
	m.frameErrors.Inc()
}

// SetClients records the number of connected clients.
func (m *Metrics) SetClients(n int) {
	m.clients.Set(float64(n))
}

// SampleProcess updates the memory and CPU gauges every interval until ctx
// is done.
func (m *Metrics) SampleProcess(ctx context.Context, interval time.Duration) error {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sample(ctx, proc)
		}
	}
}

func (m *Metrics) sample(ctx context.Context, proc *process.Process) {
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		m.memUsage.Set(float64(mem.RSS / 1024 / 1024))
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		m.cpuUsage.Set(math.Round(cpu*100) / 100)
	}
}
