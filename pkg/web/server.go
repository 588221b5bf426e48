// Package web serves the annotated video stream, the guidance status API
// and the live dashboard websockets.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/teslashibe/go-sargan/internal/log"
	"github.com/teslashibe/go-sargan/pkg/camera"
	"github.com/teslashibe/go-sargan/pkg/hub"
	"github.com/teslashibe/go-sargan/pkg/telemetry"
)

const (
	maxLogs         = 500
	shutdownTimeout = 5 * time.Second
)

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // command, info, error
	Message string `json:"message"`
}

// Options configures the server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// StreamPath is the MJPEG route.
	StreamPath string

	Camera  *camera.Manager
	Metrics *telemetry.Metrics

	// Config returns the effective configuration for GET /api/config.
	Config func() any
}

// DefaultOptions returns the stock listen address and stream route.
func DefaultOptions() Options {
	return Options{Addr: ":8080", StreamPath: "/sargan"}
}

// Server is the streaming and dashboard server
type Server struct {
	app  *fiber.App
	opts Options
	log  *slog.Logger

	feed *frameFeed

	report   *telemetry.Report
	reportMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the server and its routes.
func NewServer(opts Options) *Server {
	def := DefaultOptions()
	if opts.Addr == "" {
		opts.Addr = def.Addr
	}
	if opts.StreamPath == "" {
		opts.StreamPath = def.StreamPath
	}

	s := &Server{
		opts:      opts,
		log:       log.Component("web"),
		feed:      newFrameFeed(),
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}
	for _, h := range []*hub.Hub{s.statusHub, s.logHub, s.cameraHub} {
		h.OnCount = func(string, int) { s.updateClients() }
	}

	app := fiber.New(fiber.Config{
		AppName:               "Sargan",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get(opts.StreamPath, s.handleStream)
	app.Get("/snapshot", s.handleSnapshot)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/config", s.handleGetConfig)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleListPresets)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done, then closes the streams and shuts down.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr, "stream", s.opts.StreamPath)
		errCh <- s.app.Listen(s.opts.Addr)
	}()

	select {
	case err := <-errCh:
		s.feed.close()
		return err
	case <-ctx.Done():
	}

	s.feed.close()
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

// PublishFrame makes jpeg the current frame for MJPEG, snapshot and
// camera websocket clients.
func (s *Server) PublishFrame(jpeg []byte) {
	s.feed.publish(jpeg)
	s.cameraHub.BroadcastBinary(jpeg)
}

// PublishReport stores r as the latest status and broadcasts it.
func (s *Server) PublishReport(r telemetry.Report) {
	s.reportMu.Lock()
	s.report = &r
	s.reportMu.Unlock()

	if err := s.statusHub.BroadcastJSON(r); err != nil {
		s.log.Warn("encode status", "error", err)
	}
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format(telemetry.JournalTimeLayout),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Clients returns the number of connected stream and websocket clients.
func (s *Server) Clients() int {
	return s.feed.count() + s.statusHub.ClientCount() + s.logHub.ClientCount() + s.cameraHub.ClientCount()
}

func (s *Server) updateClients() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.SetClients(s.Clients())
	}
}
