// Package tracker orchestrates the gaze pipeline: it pulls landmarks from a
// Source, gates on blinks, and maps head pose to a stabilized screen
// position, producing one Result per frame.
package tracker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/clarivue/go-iris/internal/log"
	"github.com/clarivue/go-iris/pkg/blink"
	"github.com/clarivue/go-iris/pkg/gaze"
	"github.com/clarivue/go-iris/pkg/landmarks"
)

// Status is the tracker lifecycle state. Stopped and Error are terminal.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusRunning
	StatusPaused
	StatusError
	StatusStopped
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusError:
		return "error"
	case StatusStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// ErrNoSource reports initialization without a landmark source.
var ErrNoSource = errors.New("tracker: no landmark source")

// StateUpdater receives tracker state for dashboards. Optional.
type StateUpdater interface {
	UpdateGaze(r Result)
	AddLog(logType, message string)
}

// Tracker composes a landmark Source with blink detection and gaze
// estimation. ProcessFrame is single-caller synchronous; the mutex only
// guards against concurrent retuning from the HTTP API.
type Tracker struct {
	mu     sync.Mutex
	config Config
	status Status

	source    Source
	smoother  *landmarks.Smoother
	blink     *blink.Detector
	estimator *gaze.Estimator

	// Long-blink debounce, one-shot per sustained closure.
	closedFrames   int
	longBlinkFired bool

	haveMesh bool // a last-known-good smoothed mesh exists
	misses   int  // consecutive frames without a detection

	last  Result
	state StateUpdater
}

// New creates a tracker in the Uninitialized state. The calibration
// range auto-adapts until a manual range is installed.
func New(config Config, source Source) *Tracker {
	estimator := gaze.NewEstimator(config.ScreenWidth, config.ScreenHeight, config.EMAAlpha, config.Deadzone)
	estimator.SetAutoCalibrate(true)
	return &Tracker{
		config:    config,
		source:    source,
		smoother:  landmarks.NewSmoother(config.LandmarkAlpha),
		blink:     blink.New(config.BlinkThreshold, config.WinkFrames),
		estimator: estimator,
	}
}

// Init transitions Uninitialized → Initializing → Running. Without a
// source the tracker lands in Error.
func (t *Tracker) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusInitializing

	if t.source == nil {
		t.status = StatusError
		return ErrNoSource
	}

	t.estimator.SetReachGain(t.config.ReachGainX, t.config.ReachGainY)
	if t.config.FilterMinCutoff > 0 {
		t.estimator.EnableOutputFilter(t.config.FilterMinCutoff, t.config.FilterBeta)
	}

	t.status = StatusRunning
	log.Info("tracker running",
		"screen", fmt.Sprintf("%dx%d", t.config.ScreenWidth, t.config.ScreenHeight),
		"target_fps", t.config.TargetFPS)
	return nil
}

// Status returns the lifecycle state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Pause suspends frame processing. Only valid while Running.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusRunning {
		t.status = StatusPaused
	}
}

// Resume returns a Paused tracker to Running.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPaused {
		t.status = StatusRunning
	}
}

// Stop terminates the tracker and closes the source. Terminal.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusStopped {
		return
	}
	t.status = StatusStopped
	if t.source != nil {
		if err := t.source.Close(); err != nil {
			log.Warn("closing landmark source", "err", err)
		}
	}
}

// ProcessFrame pulls one frame through the pipeline. It requires Running;
// in any other state it returns the invalid sentinel.
func (t *Tracker) ProcessFrame() Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return Invalid()
	}

	lm := t.nextMesh()
	if lm.Empty() {
		return Invalid()
	}

	ev := t.blink.Update(lm)
	if ev != nil {
		return t.handleBlink(ev)
	}

	// Both eyes open, nothing pending: the closure (if any) is over.
	t.closedFrames = 0
	t.longBlinkFired = false

	x, y, ok := t.estimator.Estimate(lm)
	if !ok {
		return Invalid()
	}

	result := GazeResult(x, y)
	t.last = result
	if t.state != nil {
		t.state.UpdateGaze(result)
	}
	return result
}

// nextMesh pulls one detection and folds it into the smoothed mesh.
// Detection failures fall back to the last-known-good mesh so a dropped
// frame does not flicker the cursor away.
func (t *Tracker) nextMesh() landmarks.FaceLandmarks {
	raw, err := t.source.Detect()
	if err != nil || raw.Empty() {
		if err != nil {
			log.Debug("landmark source", "err", err)
		}
		t.misses++
		if t.misses == 5 {
			log.Info("face lost", "consecutive_misses", t.misses)
		}
		if t.haveMesh {
			return landmarks.New(t.smoother.Current())
		}
		return landmarks.FaceLandmarks{}
	}

	t.misses = 0
	t.haveMesh = true
	return landmarks.New(t.smoother.Smooth(raw.Points))
}

// handleBlink turns blink detector events into Results. Winks and long
// both-eye closures emit a one-shot blink Result; any other closure holds
// the last position so the cursor does not wander with shut eyes.
func (t *Tracker) handleBlink(ev *blink.Event) Result {
	x, y := t.estimator.CurrentPosition()

	if ev.IsWink {
		eye := EyeRight
		if ev.LeftClosed {
			eye = EyeLeft
		}
		if t.state != nil {
			t.state.AddLog("blink", fmt.Sprintf("wink %s (L:%.3f R:%.3f)", eye, ev.LeftEAR, ev.RightEAR))
		}
		// One-shot: the blink result is returned but never cached, so
		// held-closure frames keep reporting the frozen gaze position.
		result := BlinkResult(x, y, eye)
		if t.state != nil {
			t.state.UpdateGaze(result)
		}
		return result
	}

	if ev.LeftClosed && ev.RightClosed {
		t.closedFrames++
		if t.closedFrames >= t.config.LongBlinkFrames && !t.longBlinkFired {
			t.longBlinkFired = true
			if t.state != nil {
				t.state.AddLog("blink", "long blink")
			}
			result := BlinkResult(x, y, EyeBoth)
			if t.state != nil {
				t.state.UpdateGaze(result)
			}
			return result
		}
		return t.last
	}

	// Single-eye closure below the wink debounce, or a reopen event:
	// hold the cursor for this frame.
	if !ev.LeftClosed && !ev.RightClosed {
		t.closedFrames = 0
		t.longBlinkFired = false
	}
	return t.last
}

// LastResult returns the most recent valid result.
func (t *Tracker) LastResult() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// SetStateUpdater installs the dashboard state sink.
func (t *Tracker) SetStateUpdater(state StateUpdater) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// SetTracer installs a per-frame pipeline tracer on the estimator.
func (t *Tracker) SetTracer(tr gaze.Tracer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.estimator.SetTracer(tr)
}

// Config returns a copy of the current configuration.
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// SetConfig applies runtime retuning. Only positive values are applied, so
// partial updates leave the rest of the configuration untouched.
func (t *Tracker) SetConfig(params Config) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if params.ScreenWidth > 0 && params.ScreenHeight > 0 {
		t.config.ScreenWidth = params.ScreenWidth
		t.config.ScreenHeight = params.ScreenHeight
		t.estimator.SetScreenSize(params.ScreenWidth, params.ScreenHeight)
	}
	if params.TargetFPS > 0 {
		t.config.TargetFPS = params.TargetFPS
	}
	if params.BlinkThreshold > 0 {
		t.config.BlinkThreshold = params.BlinkThreshold
		t.blink.SetThreshold(params.BlinkThreshold)
	}
	if params.WinkFrames > 0 {
		t.config.WinkFrames = params.WinkFrames
		t.blink.SetWinkFrames(params.WinkFrames)
	}
	if params.LongBlinkFrames > 0 {
		t.config.LongBlinkFrames = params.LongBlinkFrames
	}
	if params.EMAAlpha > 0 {
		t.config.EMAAlpha = params.EMAAlpha
		t.estimator.SetAlpha(params.EMAAlpha)
	}
	if params.Deadzone > 0 {
		t.config.Deadzone = params.Deadzone
		t.estimator.SetDeadzone(params.Deadzone)
	}
	if params.LandmarkAlpha > 0 {
		t.config.LandmarkAlpha = params.LandmarkAlpha
		t.smoother.SetAlpha(params.LandmarkAlpha)
	}
	if params.ReachGainX > 0 {
		t.config.ReachGainX = params.ReachGainX
	}
	if params.ReachGainY > 0 {
		t.config.ReachGainY = params.ReachGainY
	}
	if params.ReachGainX > 0 || params.ReachGainY > 0 {
		t.estimator.SetReachGain(t.config.ReachGainX, t.config.ReachGainY)
	}
	if params.FilterMinCutoff > 0 {
		t.config.FilterMinCutoff = params.FilterMinCutoff
		if params.FilterBeta > 0 {
			t.config.FilterBeta = params.FilterBeta
		}
		t.estimator.EnableOutputFilter(t.config.FilterMinCutoff, t.config.FilterBeta)
	}
}

// SetCalibration installs a manual calibration range, disabling
// auto-calibration.
func (t *Tracker) SetCalibration(r gaze.CalibrationRange) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.estimator.SetCalibration(r)
}

// Calibration returns the active calibration range and whether it is
// auto-adapting.
func (t *Tracker) Calibration() (gaze.CalibrationRange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.estimator.Calibration(), t.estimator.AutoCalibrating()
}

// SetAutoCalibrate toggles auto-calibration on the estimator.
func (t *Tracker) SetAutoCalibrate(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.estimator.SetAutoCalibrate(enabled)
}

// Reset recenters the cursor and clears blink and smoothing state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.estimator.Reset()
	t.blink.Reset()
	t.smoother.Reset()
	t.haveMesh = false
	t.closedFrames = 0
	t.longBlinkFired = false
	t.last = Invalid()
}
