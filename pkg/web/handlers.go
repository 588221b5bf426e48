package web

import (
	"bufio"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-sargan/pkg/camera"
	"github.com/teslashibe/go-sargan/pkg/hub"
)

// replayLogs bounds the backlog sent to a new log client.
const replayLogs = 200

// handleStream serves annotated frames as multipart/x-mixed-replace.
func (s *Server) handleStream(c *fiber.Ctx) error {
	ch := s.feed.subscribe()
	if ch == nil {
		return fiber.ErrServiceUnavailable
	}
	s.updateClients()

	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			s.feed.unsubscribe(ch)
			s.updateClients()
		}()
		for jpeg := range ch {
			if err := writePart(w, jpeg); err != nil {
				return
			}
		}
	})
	return nil
}

// handleSnapshot returns the latest annotated frame
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	jpeg := s.feed.last()
	if jpeg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(jpeg)
}

// handleStatus returns the latest frame report
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()

	if s.report == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame processed yet",
		})
	}
	return c.JSON(s.report)
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	if s.opts.Config == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.opts.Config())
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return fiber.ErrServiceUnavailable
	}
	return c.JSON(s.opts.Camera.GetConfigJSON())
}

// handleUpdateCamera applies runtime camera settings
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "camera not configurable",
		})
	}

	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	if err := s.opts.Camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.AddLog("info", "camera config updated")
	return c.JSON(s.opts.Camera.GetConfigJSON())
}

func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleStatusWS streams frame reports, starting with the latest one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greeting []hub.Message

	s.reportMu.RLock()
	if s.report != nil {
		if msg, err := hub.EncodeJSON(s.report); err == nil {
			greeting = append(greeting, msg)
		}
	}
	s.reportMu.RUnlock()

	s.statusHub.Serve(c, greeting...)
}

// handleLogsWS streams log entries, starting with the buffered ones
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	recent := s.logs[max(0, len(s.logs)-replayLogs):]
	greeting := make([]hub.Message, 0, len(recent))
	for _, entry := range recent {
		if msg, err := hub.EncodeJSON(entry); err == nil {
			greeting = append(greeting, msg)
		}
	}
	s.logsMu.RUnlock()

	s.logHub.Serve(c, greeting...)
}

// handleCameraWS streams annotated JPEG frames as binary messages
func (s *Server) handleCameraWS(c *websocket.Conn) {
	var greeting []hub.Message
	if jpeg := s.feed.last(); jpeg != nil {
		greeting = append(greeting, hub.NewBinaryMessage(jpeg))
	}
	s.cameraHub.Serve(c, greeting...)
}
