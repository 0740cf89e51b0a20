// Package landmarks defines the facial landmark types shared across the
// gaze pipeline, following the MediaPipe 468-point face mesh convention.
package landmarks

import "math"

// MediaPipe face mesh landmark indices used by the pipeline.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip  = 4
	Forehead = 10

	LeftEyeTop    = 159
	LeftEyeBottom = 145
	LeftEyeLeft   = 33
	LeftEyeRight  = 133

	RightEyeTop    = 386
	RightEyeBottom = 374
	RightEyeLeft   = 362
	RightEyeRight  = 263

	// NumLandmarks is the full mesh size. A FaceLandmarks value holds
	// either 0 or exactly this many points.
	NumLandmarks = 468
)

// Point3D is a normalized image-plane coordinate with relative depth.
// X and Y are in [0,1]; Z is depth relative to the face plane.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks is an ordered set of face mesh points. The zero value means
// "no face detected".
type FaceLandmarks struct {
	Points []Point3D
}

// New creates a FaceLandmarks from a full mesh. Inputs that are not exactly
// NumLandmarks long are treated as absent.
func New(points []Point3D) FaceLandmarks {
	if len(points) != NumLandmarks {
		return FaceLandmarks{}
	}
	return FaceLandmarks{Points: points}
}

// Empty reports whether no face data is present.
func (l FaceLandmarks) Empty() bool {
	return len(l.Points) == 0
}

// At returns the landmark at the given mesh index.
func (l FaceLandmarks) At(index int) (Point3D, bool) {
	if index < 0 || index >= len(l.Points) {
		return Point3D{}, false
	}
	return l.Points[index], true
}

// NoseTip returns the nose tip landmark used for horizontal tracking.
func (l FaceLandmarks) NoseTip() (Point3D, bool) {
	return l.At(NoseTip)
}

// Forehead returns the forehead landmark used for vertical tracking.
func (l FaceLandmarks) Forehead() (Point3D, bool) {
	return l.At(Forehead)
}

// LeftEAR returns the eye aspect ratio of the left eye.
// A degenerate eye (zero corner distance or missing points) reads as 1.0,
// i.e. fully open, so geometry glitches never register as blinks.
func (l FaceLandmarks) LeftEAR() float64 {
	return l.ear(LeftEyeTop, LeftEyeBottom, LeftEyeLeft, LeftEyeRight)
}

// RightEAR returns the eye aspect ratio of the right eye.
func (l FaceLandmarks) RightEAR() float64 {
	return l.ear(RightEyeTop, RightEyeBottom, RightEyeLeft, RightEyeRight)
}

func (l FaceLandmarks) ear(top, bottom, left, right int) float64 {
	pTop, ok1 := l.At(top)
	pBottom, ok2 := l.At(bottom)
	pLeft, ok3 := l.At(left)
	pRight, ok4 := l.At(right)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 1.0
	}

	vertical := math.Abs(pTop.Y - pBottom.Y)
	horizontal := math.Abs(pRight.X - pLeft.X)
	if horizontal == 0 {
		return 1.0
	}
	return vertical / horizontal
}
