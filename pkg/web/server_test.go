package web

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clarivue/go-iris/pkg/gaze"
	"github.com/clarivue/go-iris/pkg/tracker"
)

func newTestServer() *Server {
	tr := tracker.New(tracker.DefaultConfig(), &tracker.MockSource{})
	return NewServer("0", tr)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var state TrackerState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Status != "uninitialized" {
		t.Errorf("Status = %q", state.Status)
	}
	if !state.AutoCalibrating {
		t.Error("auto-calibration should be on by default")
	}
}

func TestHandleConfig(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/api/config", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	var cfg tracker.Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.BlinkThreshold != 0.25 {
		t.Errorf("default blink threshold = %v", cfg.BlinkThreshold)
	}

	// Partial update leaves other fields alone.
	body := strings.NewReader(`{"blink_threshold": 0.30, "wink_frames": 4}`)
	req = httptest.NewRequest("POST", "/api/config", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.BlinkThreshold != 0.30 || cfg.WinkFrames != 4 {
		t.Errorf("update not applied: %+v", cfg)
	}
	if cfg.ScreenWidth != 1920 || cfg.Deadzone != 0.08 {
		t.Errorf("partial update clobbered other fields: %+v", cfg)
	}
}

func TestHandleCalibration(t *testing.T) {
	s := newTestServer()

	body := strings.NewReader(`{"x_min": 0.40, "x_max": 0.60, "y_min": 0.30, "y_max": 0.45}`)
	req := httptest.NewRequest("POST", "/api/calibration", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got CalibrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := gaze.CalibrationRange{XMin: 0.40, XMax: 0.60, YMin: 0.30, YMax: 0.45}
	if got.CalibrationRange != want {
		t.Errorf("calibration = %+v, want %+v", got.CalibrationRange, want)
	}
	if got.Auto {
		t.Error("manual calibration should disable auto-calibration")
	}

	// Re-enable auto-calibration via the flag alone.
	body = strings.NewReader(`{"auto": true}`)
	req = httptest.NewRequest("POST", "/api/calibration", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Auto {
		t.Error("auto flag should re-enable auto-calibration")
	}
}

func TestHandleCalibration_Degenerate(t *testing.T) {
	s := newTestServer()

	body := strings.NewReader(`{"x_min": 0.50, "x_max": 0.50, "y_min": 0.30, "y_max": 0.45}`)
	req := httptest.NewRequest("POST", "/api/calibration", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("degenerate range should 400, got %d", resp.StatusCode)
	}
}

func TestUpdateGazeFoldsState(t *testing.T) {
	s := newTestServer()

	s.UpdateGaze(tracker.GazeResult(960, 540))

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	var state TrackerState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.GazeX != 960 || state.GazeY != 540 || state.LastEvent != "gaze" {
		t.Errorf("state = %+v", state)
	}
	if state.FrameCount != 1 {
		t.Errorf("FrameCount = %d", state.FrameCount)
	}
}

func TestAddLog(t *testing.T) {
	s := newTestServer()
	s.AddLog("blink", "wink left")

	req := httptest.NewRequest("GET", "/api/logs", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	var logs []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Type != "blink" {
		t.Errorf("logs = %+v", logs)
	}
}
