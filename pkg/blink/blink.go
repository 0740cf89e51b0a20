// Package blink detects blinks and winks from eye aspect ratios.
//
// An eye counts as closed when its EAR drops below a threshold. A wink is a
// sustained single-eye closure; it is edge-triggered after a configurable
// number of consecutive frames and fires exactly once per closure. A regular
// blink (both eyes) is reported once, on the transition back to open.
package blink

import (
	"github.com/clarivue/go-iris/pkg/landmarks"
)

// Event describes the eye state for one frame. IsWink marks the single
// frame on which a sustained wink triggers; every other event is
// informational, letting callers pause cursor updates while an eye is shut.
type Event struct {
	IsWink      bool    `json:"is_wink"`
	LeftClosed  bool    `json:"left_closed"`
	RightClosed bool    `json:"right_closed"`
	LeftEAR     float64 `json:"left_ear"`
	RightEAR    float64 `json:"right_ear"`
}

// Detector is the debounced blink/wink state machine.
//
// Owned by a single caller; not safe for concurrent use.
type Detector struct {
	threshold  float64 // EAR below this means closed
	winkFrames int     // consecutive frames required to trigger a wink

	winkCounter   int
	winkTriggered bool
	blinkCounter  int

	lastLeftEAR  float64
	lastRightEAR float64
}

// New creates a detector. Typical thresholds are 0.20-0.30.
func New(threshold float64, winkFrames int) *Detector {
	return &Detector{
		threshold:    threshold,
		winkFrames:   winkFrames,
		lastLeftEAR:  1.0,
		lastRightEAR: 1.0,
	}
}

// Update feeds one frame of landmarks through the state machine.
// It returns nil only when both eyes are open and no event is pending.
func (d *Detector) Update(lm landmarks.FaceLandmarks) *Event {
	leftEAR := lm.LeftEAR()
	rightEAR := lm.RightEAR()
	d.lastLeftEAR = leftEAR
	d.lastRightEAR = rightEAR

	leftClosed := leftEAR < d.threshold
	rightClosed := rightEAR < d.threshold

	// A wink is exactly one eye closed. Two closed eyes never qualify.
	isWinking := leftClosed != rightClosed

	if isWinking {
		d.winkCounter++
		d.blinkCounter++

		if d.winkCounter == d.winkFrames && !d.winkTriggered {
			d.winkTriggered = true
			return &Event{
				IsWink:      true,
				LeftClosed:  leftClosed,
				RightClosed: rightClosed,
				LeftEAR:     leftEAR,
				RightEAR:    rightEAR,
			}
		}
	} else {
		// Eyes opened, or both closed.
		wasBlinking := d.blinkCounter >= 2 && !leftClosed && !rightClosed

		d.winkCounter = 0
		d.winkTriggered = false
		d.blinkCounter = 0

		if wasBlinking {
			return &Event{
				LeftEAR:  leftEAR,
				RightEAR: rightEAR,
			}
		}
	}

	// An eye is still down: report state so callers can hold the cursor.
	if leftClosed || rightClosed {
		return &Event{
			LeftClosed:  leftClosed,
			RightClosed: rightClosed,
			LeftEAR:     leftEAR,
			RightEAR:    rightEAR,
		}
	}

	return nil
}

// IsBlinking reports whether the detector is mid-closure.
func (d *Detector) IsBlinking() bool {
	return d.blinkCounter > 0
}

// LastEAR returns the most recent left and right eye aspect ratios.
func (d *Detector) LastEAR() (left, right float64) {
	return d.lastLeftEAR, d.lastRightEAR
}

// Reset clears all counters and the trigger latch.
func (d *Detector) Reset() {
	d.winkCounter = 0
	d.winkTriggered = false
	d.blinkCounter = 0
}

// SetThreshold retunes the closed-eye EAR threshold at runtime.
func (d *Detector) SetThreshold(threshold float64) {
	d.threshold = threshold
}

// SetWinkFrames retunes the wink debounce length at runtime.
func (d *Detector) SetWinkFrames(frames int) {
	d.winkFrames = frames
}
