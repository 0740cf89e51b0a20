// Package filter provides adaptive low-pass filtering primitives for
// noisy per-frame signals.
//
// The One Euro filter adapts its cutoff frequency to the estimated signal
// velocity: slow signals are smoothed hard, fast motion passes through with
// little lag. Reference: https://cristal.univ-lille.fr/~casiez/1euro/
package filter

import (
	"math"
	"time"
)

const (
	// derivativeCutoff is the fixed cutoff for the derivative smoothing stage (Hz).
	derivativeCutoff = 1.0

	// minTimeDelta floors dt to avoid division blowups when calls arrive
	// faster than the clock resolution.
	minTimeDelta = 0.001

	// fallbackTimeDelta assumes 60 FPS when no previous timestamp exists.
	fallbackTimeDelta = 1.0 / 60.0
)

// OneEuro is an adaptive exponential low-pass filter.
//
// It is stateful and owned by a single caller; it is not safe for
// concurrent use.
type OneEuro struct {
	minCutoff float64 // minimum cutoff frequency (Hz), lower = smoother
	beta      float64 // speed coefficient, higher = less lag when moving fast

	xPrev       float64
	dxPrev      float64
	lastTime    time.Time
	hasLastTime bool
	initialized bool

	now func() time.Time // injected for tests
}

// NewOneEuro creates a filter with the given minimum cutoff frequency (Hz)
// and speed coefficient.
func NewOneEuro(minCutoff, beta float64) *OneEuro {
	return &OneEuro{
		minCutoff: minCutoff,
		beta:      beta,
		now:       time.Now,
	}
}

// Filter feeds one sample through the filter and returns the smoothed value.
// The first sample after creation or Reset is returned unchanged.
// Filter never fails; degenerate time deltas are clamped.
func (f *OneEuro) Filter(x float64) float64 {
	t := f.now()

	if !f.initialized {
		f.xPrev = x
		f.dxPrev = 0
		f.lastTime = t
		f.hasLastTime = true
		f.initialized = true
		return x
	}

	dt := fallbackTimeDelta
	if f.hasLastTime {
		dt = math.Max(t.Sub(f.lastTime).Seconds(), minTimeDelta)
	}
	f.lastTime = t
	f.hasLastTime = true

	// Smooth the derivative estimate at a fixed cutoff.
	aD := smoothingFactor(dt, derivativeCutoff)
	dx := (x - f.xPrev) / dt
	dxHat := blend(aD, dx, f.dxPrev)

	// Widen the cutoff with speed: smooth when still, responsive when moving.
	cutoff := f.minCutoff + f.beta*math.Abs(dxHat)

	a := smoothingFactor(dt, cutoff)
	xHat := blend(a, x, f.xPrev)

	f.xPrev = xHat
	f.dxPrev = dxHat

	return xHat
}

// Reset re-seeds the filter at the given value. The next Filter call is
// treated as a first sample.
func (f *OneEuro) Reset(value float64) {
	f.xPrev = value
	f.dxPrev = 0
	f.hasLastTime = false
	f.initialized = false
}

// smoothingFactor converts a cutoff frequency to an exponential smoothing
// factor for the given time step.
func smoothingFactor(dt, cutoff float64) float64 {
	tau := 1.0 / (2.0 * math.Pi * cutoff)
	return 1.0 / (1.0 + tau/dt)
}

// blend is one step of exponential smoothing.
func blend(a, x, xPrev float64) float64 {
	return a*x + (1.0-a)*xPrev
}
