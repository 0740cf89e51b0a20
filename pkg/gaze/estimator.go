// Package gaze maps facial landmarks to a stabilized screen position.
//
// The Estimator is the single authoritative gaze-mapping pipeline: raw
// signal extraction, outlier and jump rejection, gain-tiered EMA smoothing,
// calibration normalization, deadzone, reach-gain expansion, and
// distance-adaptive output smoothing. Both standalone use and the tracker
// orchestrator go through this one implementation.
package gaze

import (
	"math"

	"github.com/clarivue/go-iris/pkg/filter"
	"github.com/clarivue/go-iris/pkg/landmarks"
)

// Raw input outside this window is treated as a detector glitch, not motion.
const (
	rawMin = 0.05
	rawMax = 0.95
)

// Auto-calibration tuning.
const (
	autoCalWarmupSamples = 30   // envelope samples before the range adapts
	autoCalPadding       = 0.30 // pad the observed envelope for corner access
	autoCalGrowRate      = 0.20 // per-frame step toward a wider range
	autoCalShrinkRate    = 0.005 // per-frame step toward a narrower range
)

// Estimator converts the nose/forehead signal to screen coordinates.
//
// All state is owned by the single caller; not safe for concurrent use.
type Estimator struct {
	screenWidth  int
	screenHeight int

	alpha    float64 // base raw-signal EMA alpha (low-gain tier)
	deadzone float64 // base normalized deadzone half-width

	reachGainX float64
	reachGainY float64

	cal           CalibrationRange
	autoCalibrate bool
	autoCalSamples int
	envelope      CalibrationRange // observed raw min/max while auto-calibrating

	// Raw-signal EMA state.
	emaX float64
	emaY float64

	// Previous raw sample, for jump rejection.
	rawPrevX     float64
	rawPrevY     float64
	rawPrevValid bool

	// Stabilized output position in screen pixels.
	currentX float64
	currentY float64

	// Optional adaptive output filter, applied after the
	// distance-adaptive stage. Nil when disabled.
	filterX *filter.OneEuro
	filterY *filter.OneEuro

	frameCount uint64
	tracer     Tracer
}

// NewEstimator creates an estimator for the given screen. alpha is the base
// raw-signal EMA factor and deadzone the normalized half-width around
// center. The cursor starts at screen center with the default calibration.
func NewEstimator(screenWidth, screenHeight int, alpha, deadzone float64) *Estimator {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultEMAAlpha
	}
	return &Estimator{
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		alpha:        alpha,
		deadzone:     deadzone,
		reachGainX:   1.0,
		reachGainY:   1.0,
		cal:          DefaultCalibration(),
		emaX:         0.5,
		emaY:         0.5,
		currentX:     float64(screenWidth) / 2,
		currentY:     float64(screenHeight) / 2,
	}
}

// Estimate maps one frame of landmarks to a screen position.
// ok is false when the nose or forehead landmark is missing or the
// calibration span has collapsed; transient glitches instead return the
// last stable position.
func (e *Estimator) Estimate(lm landmarks.FaceLandmarks) (x, y float64, ok bool) {
	nose, haveNose := lm.NoseTip()
	forehead, haveForehead := lm.Forehead()
	if !haveNose || !haveForehead {
		return 0, 0, false
	}

	e.frameCount++

	// Horizontal from the nose tip, vertical from the forehead.
	rawX := nose.X
	rawY := forehead.Y

	gainAvg := (e.reachGainX + e.reachGainY) / 2

	// Extreme values are detector glitches: hold the last stable position.
	if rawX < rawMin || rawX > rawMax || rawY < rawMin || rawY > rawMax {
		return e.currentX, e.currentY, true
	}

	// Frame-to-frame teleports are jitter, not head motion. Higher reach
	// gain amplifies noise, so the thresholds tighten with gain.
	if e.rawPrevValid {
		jumpX, jumpY := 0.08, 0.06
		if gainAvg >= 2.0 {
			jumpX, jumpY = 0.05, 0.04
		}
		if math.Abs(rawX-e.rawPrevX) > jumpX || math.Abs(rawY-e.rawPrevY) > jumpY {
			return e.currentX, e.currentY, true
		}
	}
	e.rawPrevX = rawX
	e.rawPrevY = rawY
	e.rawPrevValid = true

	if e.autoCalibrate {
		e.observeEnvelope(rawX, rawY)
	}

	// EMA the raw signal before normalizing. High gain needs a smaller
	// alpha: amplified output magnifies whatever jitter survives.
	rawAlpha := e.rawAlpha(gainAvg)
	e.emaX += (rawX - e.emaX) * rawAlpha
	e.emaY += (rawY - e.emaY) * rawAlpha

	xSpan := e.cal.XMax - e.cal.XMin
	ySpan := e.cal.YMax - e.cal.YMin
	if xSpan < minXSpan || ySpan < minYSpan {
		// Collapsed calibration cannot be normalized against.
		return 0, 0, false
	}

	// Normalize. Horizontal is inverted: turning right moves the nose left
	// in camera space.
	hNorm := 1.0 - (e.emaX-e.cal.XMin)/xSpan
	vNorm := (e.emaY - e.cal.YMin) / ySpan

	// Deadzone around center suppresses resting jitter.
	dz := e.effectiveDeadzone(gainAvg)
	if math.Abs(hNorm-0.5) < dz {
		hNorm = 0.5
	}
	if math.Abs(vNorm-0.5) < dz {
		vNorm = 0.5
	}

	// Expand around center so corners are reachable with less head motion.
	hNorm = 0.5 + (hNorm-0.5)*e.reachGainX
	vNorm = 0.5 + (vNorm-0.5)*e.reachGainY

	hNorm = clamp(hNorm, 0, 1)
	vNorm = clamp(vNorm, 0, 1)

	targetX := hNorm * float64(e.screenWidth)
	targetY := vNorm * float64(e.screenHeight)

	// Distance-adaptive output smoothing: large moves step a fraction of
	// the way, small settled moves snap exactly, avoiding perpetual
	// one-frame lag around a fixation point.
	dx := targetX - e.currentX
	dy := targetY - e.currentY
	dist := math.Hypot(dx, dy)

	if dist > e.snapThreshold(gainAvg) {
		response := e.responseFraction(gainAvg)
		e.currentX += dx * response
		e.currentY += dy * response
	} else {
		e.currentX = targetX
		e.currentY = targetY
	}

	if e.filterX != nil {
		e.currentX = e.filterX.Filter(e.currentX)
		e.currentY = e.filterY.Filter(e.currentY)
	}

	if e.tracer != nil {
		e.tracer.Trace(FrameTrace{
			Frame:   e.frameCount,
			RawX:    rawX,
			RawY:    rawY,
			EMAX:    e.emaX,
			EMAY:    e.emaY,
			NormX:   hNorm,
			NormY:   vNorm,
			ScreenX: e.currentX,
			ScreenY: e.currentY,
		})
	}

	return e.currentX, e.currentY, true
}

// rawAlpha picks the raw-signal EMA tier for the current gain.
// Multipliers preserve the tuned 0.55/0.45/0.35 ladder at the default alpha.
func (e *Estimator) rawAlpha(gainAvg float64) float64 {
	switch {
	case gainAvg >= 3.0:
		return e.alpha * 0.64
	case gainAvg >= 2.5:
		return e.alpha * 0.82
	default:
		return e.alpha
	}
}

// effectiveDeadzone widens the deadzone at high gain, never below the
// configured value.
func (e *Estimator) effectiveDeadzone(gainAvg float64) float64 {
	switch {
	case gainAvg >= 3.0:
		return math.Max(e.deadzone, 0.10)
	case gainAvg >= 2.5:
		return math.Max(e.deadzone, 0.08)
	default:
		return e.deadzone
	}
}

// responseFraction is the step fraction applied to large output moves.
func (e *Estimator) responseFraction(gainAvg float64) float64 {
	switch {
	case gainAvg >= 3.0:
		return 0.32
	case gainAvg >= 2.5:
		return 0.40
	case gainAvg >= 2.0:
		return 0.50
	default:
		return 0.60
	}
}

// snapThreshold is the output distance (px) below which moves snap exactly.
func (e *Estimator) snapThreshold(gainAvg float64) float64 {
	switch {
	case gainAvg >= 3.0:
		return 12.0
	case gainAvg >= 2.5:
		return 10.0
	default:
		return 6.0
	}
}

// observeEnvelope tracks the raw-signal extremes and eases the active
// calibration range toward the padded envelope: growth is fast so new head
// range is usable quickly, shrinking is very slow so one quiet minute does
// not collapse the mapping.
func (e *Estimator) observeEnvelope(rawX, rawY float64) {
	// Ignore extreme samples; they are usually detector glitches.
	if rawX <= 0.1 || rawX >= 0.95 || rawY <= 0.1 || rawY >= 0.9 {
		return
	}

	if e.autoCalSamples == 0 {
		e.envelope = CalibrationRange{XMin: rawX, XMax: rawX, YMin: rawY, YMax: rawY}
	}
	e.autoCalSamples++

	e.envelope.XMin = math.Min(e.envelope.XMin, rawX)
	e.envelope.XMax = math.Max(e.envelope.XMax, rawX)
	e.envelope.YMin = math.Min(e.envelope.YMin, rawY)
	e.envelope.YMax = math.Max(e.envelope.YMax, rawY)

	if e.autoCalSamples < autoCalWarmupSamples {
		return
	}

	xRange := e.envelope.XMax - e.envelope.XMin
	yRange := e.envelope.YMax - e.envelope.YMin
	if xRange < minXSpan || yRange < minYSpan {
		return
	}

	target := CalibrationRange{
		XMin: e.envelope.XMin - xRange*autoCalPadding,
		XMax: e.envelope.XMax + xRange*autoCalPadding,
		YMin: e.envelope.YMin - yRange*autoCalPadding,
		YMax: e.envelope.YMax + yRange*autoCalPadding,
	}

	e.cal.XMin = easeBound(e.cal.XMin, target.XMin, target.XMin < e.cal.XMin)
	e.cal.XMax = easeBound(e.cal.XMax, target.XMax, target.XMax > e.cal.XMax)
	e.cal.YMin = easeBound(e.cal.YMin, target.YMin, target.YMin < e.cal.YMin)
	e.cal.YMax = easeBound(e.cal.YMax, target.YMax, target.YMax > e.cal.YMax)
}

// easeBound moves a calibration bound toward its target, fast when the move
// widens the range and very slowly when it narrows it.
func easeBound(current, target float64, widens bool) float64 {
	rate := autoCalShrinkRate
	if widens {
		rate = autoCalGrowRate
	}
	return current + (target-current)*rate
}

// CurrentPosition returns the stabilized position without processing a frame.
func (e *Estimator) CurrentPosition() (x, y float64) {
	return e.currentX, e.currentY
}

// Calibration returns the active calibration range.
func (e *Estimator) Calibration() CalibrationRange {
	return e.cal
}

// AutoCalibrating reports whether the range is adapting to observed motion.
func (e *Estimator) AutoCalibrating() bool {
	return e.autoCalibrate
}

// SetCalibration installs a manual calibration range and disables
// auto-calibration. Degenerate spans are rejected.
func (e *Estimator) SetCalibration(r CalibrationRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.cal = r
	e.autoCalibrate = false
	return nil
}

// SetAutoCalibrate toggles auto-calibration. Enabling restarts the
// envelope observation from scratch.
func (e *Estimator) SetAutoCalibrate(enabled bool) {
	e.autoCalibrate = enabled
	if enabled {
		e.autoCalSamples = 0
		e.envelope = CalibrationRange{}
	}
}

// SetAlpha retunes the base raw-signal EMA factor. Values outside (0,1]
// are ignored.
func (e *Estimator) SetAlpha(alpha float64) {
	if alpha > 0 && alpha <= 1 {
		e.alpha = alpha
	}
}

// SetDeadzone retunes the normalized deadzone half-width.
func (e *Estimator) SetDeadzone(deadzone float64) {
	if deadzone >= 0 && deadzone < 0.5 {
		e.deadzone = deadzone
	}
}

// SetReachGain sets the per-axis expansion around the normalized center.
func (e *Estimator) SetReachGain(gainX, gainY float64) {
	e.reachGainX = gainX
	e.reachGainY = gainY
}

// ReachGain returns the per-axis reach gains.
func (e *Estimator) ReachGain() (gainX, gainY float64) {
	return e.reachGainX, e.reachGainY
}

// SetScreenSize rescales to new screen dimensions, carrying the stabilized
// position across proportionally.
func (e *Estimator) SetScreenSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.currentX *= float64(width) / float64(e.screenWidth)
	e.currentY *= float64(height) / float64(e.screenHeight)
	e.screenWidth = width
	e.screenHeight = height
}

// EnableOutputFilter adds adaptive low-pass smoothing to the final screen
// position, on top of the distance-adaptive stage. Useful for users with
// tremor, at the cost of a little extra lag.
func (e *Estimator) EnableOutputFilter(minCutoff, beta float64) {
	e.filterX = filter.NewOneEuro(minCutoff, beta)
	e.filterY = filter.NewOneEuro(minCutoff, beta)
	e.filterX.Reset(e.currentX)
	e.filterY.Reset(e.currentY)
}

// DisableOutputFilter removes the output filter.
func (e *Estimator) DisableOutputFilter() {
	e.filterX = nil
	e.filterY = nil
}

// SetTracer installs an observability sink for per-frame pipeline values.
// A nil tracer disables tracing.
func (e *Estimator) SetTracer(t Tracer) {
	e.tracer = t
}

// Reset recenters the cursor and clears all smoothing state. Calibration
// and gains are kept.
func (e *Estimator) Reset() {
	e.currentX = float64(e.screenWidth) / 2
	e.currentY = float64(e.screenHeight) / 2
	e.emaX = 0.5
	e.emaY = 0.5
	e.rawPrevValid = false
	e.frameCount = 0
	if e.filterX != nil {
		e.filterX.Reset(e.currentX)
		e.filterY.Reset(e.currentY)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
