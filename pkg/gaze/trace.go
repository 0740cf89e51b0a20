package gaze

import "log/slog"

// DefaultEMAAlpha is the authoritative base raw-signal EMA factor.
const DefaultEMAAlpha = 0.55

// FrameTrace is one frame's intermediate pipeline values.
type FrameTrace struct {
	Frame   uint64  `json:"frame"`
	RawX    float64 `json:"raw_x"`
	RawY    float64 `json:"raw_y"`
	EMAX    float64 `json:"ema_x"`
	EMAY    float64 `json:"ema_y"`
	NormX   float64 `json:"norm_x"`
	NormY   float64 `json:"norm_y"`
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`
}

// Tracer receives per-frame pipeline values. Implementations must be cheap;
// they run inside the frame budget.
type Tracer interface {
	Trace(t FrameTrace)
}

// SlogTracer logs a sampled trace line at debug level. The sample interval
// keeps a 30 fps stream from flooding the log.
type SlogTracer struct {
	Logger   *slog.Logger
	Interval uint64 // log every Nth frame; 0 means every 60th
}

// Trace implements Tracer.
func (s *SlogTracer) Trace(t FrameTrace) {
	interval := s.Interval
	if interval == 0 {
		interval = 60
	}
	if t.Frame%interval != 0 {
		return
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("gaze frame",
		"frame", t.Frame,
		"raw_x", t.RawX, "raw_y", t.RawY,
		"norm_x", t.NormX, "norm_y", t.NormY,
		"screen_x", t.ScreenX, "screen_y", t.ScreenY,
	)
}
