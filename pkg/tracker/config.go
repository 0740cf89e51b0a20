package tracker

import "github.com/clarivue/go-iris/pkg/gaze"

// Config holds all tunable tracker parameters. Every field can be changed
// at runtime through SetConfig; JSON tags match the HTTP tuning API.
type Config struct {
	// Output surface
	ScreenWidth  int `json:"screen_width"`
	ScreenHeight int `json:"screen_height"`

	// Capture
	CameraWidth  int `json:"camera_width"`
	CameraHeight int `json:"camera_height"`
	TargetFPS    int `json:"target_fps"`

	// Gaze mapping
	EMAAlpha   float64 `json:"ema_alpha"`   // base raw-signal EMA factor
	Deadzone   float64 `json:"deadzone"`    // normalized half-width around center
	ReachGainX float64 `json:"reach_gain_x"`
	ReachGainY float64 `json:"reach_gain_y"`

	// Landmark smoothing
	LandmarkAlpha float64 `json:"landmark_alpha"`

	// Blink detection
	BlinkThreshold  float64 `json:"blink_threshold"`   // EAR below this = closed
	WinkFrames      int     `json:"wink_frames"`       // wink debounce length
	LongBlinkFrames int     `json:"long_blink_frames"` // both-eye closure debounce

	// Optional adaptive output filter. Zero min cutoff leaves it off.
	FilterMinCutoff float64 `json:"filter_min_cutoff"`
	FilterBeta      float64 `json:"filter_beta"`
}

// DefaultConfig returns the recommended configuration for a 30 fps webcam
// driving a 1080p screen.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:  1920,
		ScreenHeight: 1080,

		CameraWidth:  640,
		CameraHeight: 480,
		TargetFPS:    30,

		EMAAlpha:   gaze.DefaultEMAAlpha,
		Deadzone:   0.08,
		ReachGainX: 1.0,
		ReachGainY: 1.0,

		LandmarkAlpha: 0.35,

		BlinkThreshold:  0.25,
		WinkFrames:      8,
		LongBlinkFrames: 12, // ~400ms at 30 fps
	}
}

// SmoothConfig favors stability over responsiveness, for users with
// involuntary head motion.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 0.35
	cfg.Deadzone = 0.12
	cfg.LandmarkAlpha = 0.25
	return cfg
}

// ResponsiveConfig trades smoothness for lower latency.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 0.70
	cfg.Deadzone = 0.05
	cfg.LandmarkAlpha = 0.50
	cfg.WinkFrames = 5
	return cfg
}
