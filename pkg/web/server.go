// Package web provides the control dashboard and streaming API for the
// gaze daemon.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/clarivue/go-iris/internal/log"
	"github.com/clarivue/go-iris/pkg/hub"
	"github.com/clarivue/go-iris/pkg/tracker"
)

// TrackerState is the dashboard snapshot of the pipeline.
type TrackerState struct {
	Status          string  `json:"status"`
	CameraConnected bool    `json:"camera_connected"`
	AutoCalibrating bool    `json:"auto_calibrating"`
	GazeX           float64 `json:"gaze_x"`
	GazeY           float64 `json:"gaze_y"`
	LastEvent       string  `json:"last_event"`
	FrameCount      uint64  `json:"frame_count"`
}

// LogEntry represents a log line for the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, blink, tracking, error
	Message string `json:"message"`
}

// Server is the dashboard and streaming server. It doubles as the
// tracker's StateUpdater so gaze results flow to websocket clients.
type Server struct {
	app     *fiber.App
	port    string
	tracker *tracker.Tracker

	state   TrackerState
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	gazeHub   *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the dashboard server around a tracker.
func NewServer(port string, tr *tracker.Tracker) *Server {
	s := &Server{
		port:      port,
		tracker:   tr,
		logs:      make([]LogEntry, 0, 500),
		gazeHub:   hub.New("gaze"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Iris Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)
	api.Get("/calibration", s.handleGetCalibration)
	api.Post("/calibration", s.handleSetCalibration)
	api.Get("/logs", s.handleGetLogs)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/gaze", websocket.New(s.handleGazeWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the hubs and the HTTP listener. Blocks.
func (s *Server) Start() error {
	log.Info("dashboard listening", "port", s.port)

	go s.gazeHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server", "error", err)
		}
	}()
}

// UpdateGaze implements tracker.StateUpdater. Every valid result is
// broadcast to gaze websocket clients and folded into the status snapshot.
func (s *Server) UpdateGaze(r tracker.Result) {
	s.stateMu.Lock()
	s.state.GazeX = r.X
	s.state.GazeY = r.Y
	s.state.LastEvent = r.Event.String()
	s.state.FrameCount++
	s.stateMu.Unlock()

	s.gazeHub.BroadcastJSON(r)
}

// AddLog implements tracker.StateUpdater.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SetCameraConnected records camera health for the status endpoint.
func (s *Server) SetCameraConnected(connected bool) {
	s.stateMu.Lock()
	s.state.CameraConnected = connected
	s.stateMu.Unlock()
}

// SendCameraFrame broadcasts a JPEG frame to camera websocket clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// GazeHub returns the gaze hub for external use.
func (s *Server) GazeHub() *hub.Hub {
	return s.gazeHub
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
