package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/clarivue/go-iris/pkg/gaze"
	"github.com/clarivue/go-iris/pkg/hub"
	"github.com/clarivue/go-iris/pkg/tracker"
)

// handleStatus returns the current pipeline snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()

	state.Status = s.tracker.Status().String()
	_, state.AutoCalibrating = s.tracker.Calibration()
	return c.JSON(state)
}

// handleGetConfig returns the active tuning parameters.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.tracker.Config())
}

// handleSetConfig applies a partial tuning update. Zero-valued fields in
// the request body are left untouched.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var params tracker.Config
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid config body: " + err.Error(),
		})
	}

	s.tracker.SetConfig(params)
	s.AddLog("info", "config updated")
	return c.JSON(s.tracker.Config())
}

// CalibrationResponse is the calibration endpoint payload.
type CalibrationResponse struct {
	gaze.CalibrationRange
	Auto bool `json:"auto"`
}

// handleGetCalibration returns the active calibration range.
func (s *Server) handleGetCalibration(c *fiber.Ctx) error {
	r, auto := s.tracker.Calibration()
	return c.JSON(CalibrationResponse{CalibrationRange: r, Auto: auto})
}

// CalibrationRequest sets a manual range or toggles auto-calibration.
type CalibrationRequest struct {
	gaze.CalibrationRange
	Auto *bool `json:"auto"`
}

// handleSetCalibration applies a manual calibration range, or flips
// auto-calibration when only the auto flag is present.
func (s *Server) handleSetCalibration(c *fiber.Ctx) error {
	var req CalibrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid calibration body: " + err.Error(),
		})
	}

	if req.CalibrationRange != (gaze.CalibrationRange{}) {
		if err := s.tracker.SetCalibration(req.CalibrationRange); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		s.AddLog("info", "manual calibration applied")
	}
	if req.Auto != nil {
		s.tracker.SetAutoCalibrate(*req.Auto)
	}

	r, auto := s.tracker.Calibration()
	return c.JSON(CalibrationResponse{CalibrationRange: r, Auto: auto})
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGazeWS streams gaze results to a websocket client.
func (s *Server) handleGazeWS(c *websocket.Conn) {
	// Send the last stable position so clients render immediately.
	c.WriteJSON(s.tracker.LastResult())
	hub.NewClient(s.gazeHub, c).Run()
}

// handleLogsWS streams log entries to a websocket client.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

// handleCameraWS streams JPEG frames to a websocket client.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
