package gaze

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrDegenerateRange reports a calibration range whose span is too small to
// normalize against.
var ErrDegenerateRange = errors.New("gaze: calibration range span too small")

// Minimum usable calibration spans. Head motion below these is
// indistinguishable from detector noise.
const (
	minXSpan = 0.02
	minYSpan = 0.015
)

// CalibrationRange maps the raw nose/forehead signal onto [0,1] per axis.
type CalibrationRange struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// DefaultCalibration is a laptop-webcam baseline measured at a typical
// seated distance. Auto-calibration or a calibration file replaces it.
func DefaultCalibration() CalibrationRange {
	return CalibrationRange{
		XMin: 0.5174,
		XMax: 0.5967,
		YMin: 0.3542,
		YMax: 0.3910,
	}
}

// Validate rejects ranges that would divide by (near) zero.
func (r CalibrationRange) Validate() error {
	if r.XMax-r.XMin < minXSpan {
		return fmt.Errorf("%w: x span %.4f", ErrDegenerateRange, r.XMax-r.XMin)
	}
	if r.YMax-r.YMin < minYSpan {
		return fmt.Errorf("%w: y span %.4f", ErrDegenerateRange, r.YMax-r.YMin)
	}
	return nil
}

// parseKeyValues reads a permissive `key = value[, value]` text format.
// A line may assign several comma-separated keys at once:
//
//	nose_x_min, nose_x_max = 0.5174, 0.5967
//	reach_gain = 1.4
//	# comments and malformed lines are skipped
//
// Unknown keys are kept; the caller picks what it understands.
func parseKeyValues(data []byte) map[string]float64 {
	out := make(map[string]float64)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}

		keys := strings.Split(line[:eq], ",")
		values := strings.Split(line[eq+1:], ",")
		if len(keys) != len(values) {
			continue
		}

		for i, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(values[i]), 64)
			if err != nil {
				continue
			}
			out[key] = v
		}
	}

	return out
}

// ParseCalibration extracts a calibration range from key=value text.
// It returns false when any of the four bounds is missing.
func ParseCalibration(data []byte) (CalibrationRange, bool) {
	kv := parseKeyValues(data)

	r := CalibrationRange{}
	var ok [4]bool
	r.XMin, ok[0] = kv["nose_x_min"]
	r.XMax, ok[1] = kv["nose_x_max"]
	r.YMin, ok[2] = kv["nose_y_min"]
	r.YMax, ok[3] = kv["nose_y_max"]

	if !ok[0] || !ok[1] || !ok[2] || !ok[3] {
		return CalibrationRange{}, false
	}
	return r, true
}

// ParseReachGain extracts per-axis reach gains from key=value text.
// `reach_gain` (or `gain`) sets both axes; `reach_gain_x` / `reach_gain_y`
// override per axis. Returns false when no gain key is present.
func ParseReachGain(data []byte) (gainX, gainY float64, ok bool) {
	kv := parseKeyValues(data)

	base, hasBase := kv["reach_gain"]
	if !hasBase {
		base, hasBase = kv["gain"]
	}
	gx, hasX := kv["reach_gain_x"]
	gy, hasY := kv["reach_gain_y"]

	if !hasBase && !hasX && !hasY {
		return 0, 0, false
	}
	if !hasBase {
		base = 1.0
	}
	if !hasX {
		gx = base
	}
	if !hasY {
		gy = base
	}
	return gx, gy, true
}

// LoadCalibrationFile reads a calibration range from a key=value file.
func LoadCalibrationFile(path string) (CalibrationRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CalibrationRange{}, fmt.Errorf("read calibration: %w", err)
	}
	r, ok := ParseCalibration(data)
	if !ok {
		return CalibrationRange{}, fmt.Errorf("calibration file %s: missing nose range keys", path)
	}
	if err := r.Validate(); err != nil {
		return CalibrationRange{}, err
	}
	return r, nil
}

// WriteCalibrationFile persists a calibration range in the key=value format
// that LoadCalibrationFile reads back.
func WriteCalibrationFile(path string, r CalibrationRange) error {
	var b strings.Builder
	fmt.Fprintf(&b, "nose_x_min, nose_x_max = %.4f, %.4f\n", r.XMin, r.XMax)
	fmt.Fprintf(&b, "nose_y_min, nose_y_max = %.4f, %.4f\n", r.YMin, r.YMax)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	return nil
}
