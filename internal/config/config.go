// Package config provides environment configuration helpers for go-iris commands.
package config

import (
	"os"
	"strconv"
)

// Default daemon configuration.
const (
	DefaultHTTPPort    = "8573"
	DefaultCameraIndex = 0
)

// HTTPPort returns the HTTP API port from IRIS_PORT or the default.
func HTTPPort() string {
	if port := os.Getenv("IRIS_PORT"); port != "" {
		return port
	}
	return DefaultHTTPPort
}

// CameraIndex returns the capture device index from IRIS_CAMERA or the default.
func CameraIndex() int {
	return envInt("IRIS_CAMERA", DefaultCameraIndex)
}

// ScreenSize returns the target screen dimensions from IRIS_SCREEN_W/IRIS_SCREEN_H.
// Falls back to the provided defaults when unset.
func ScreenSize(defaultW, defaultH int) (int, int) {
	return envInt("IRIS_SCREEN_W", defaultW), envInt("IRIS_SCREEN_H", defaultH)
}

// CalibrationPath returns the calibration file path from IRIS_CALIBRATION.
// Empty means no calibration file; the tracker auto-calibrates instead.
func CalibrationPath() string {
	return os.Getenv("IRIS_CALIBRATION")
}

// ModelPath returns the face detection model path from IRIS_MODEL or the default.
func ModelPath(defaultPath string) string {
	if p := os.Getenv("IRIS_MODEL"); p != "" {
		return p
	}
	return defaultPath
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}
