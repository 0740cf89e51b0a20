package detect

import (
	"fmt"

	"github.com/clarivue/go-iris/internal/log"
	"github.com/clarivue/go-iris/pkg/landmarks"
)

// Box-relative offsets used to synthesize the semantic landmark subset
// when only a bounding box (plus optional eye keypoints) is available.
const (
	noseOffsetY     = 0.15 // below box center
	foreheadOffsetY = 0.25 // above box center
	eyeOffsetX      = 0.15 // eye centers from box center
	eyeOffsetY      = 0.08 // eyes above box center
	lidOffsetY      = 0.03 // lids from eye center
	eyeCornerX      = 0.05 // corners from eye center
)

// FrameGrabber supplies encoded camera frames.
type FrameGrabber interface {
	CaptureJPEG() ([]byte, error)
}

// BoxSource turns face-box detections into the landmark subset the gaze
// pipeline consumes. Eye keypoints from the detector are used when
// present; everything else is derived from box geometry, which is enough
// for head-position gaze but makes blink detection insensitive (the
// synthesized lids are always open).
type BoxSource struct {
	grabber  FrameGrabber
	detector Detector
	logger   interface {
		Debug(msg string, args ...any)
	}
}

// NewBoxSource wires a frame grabber to a detector. BoxSource owns the
// detector and closes it with Close; the grabber is borrowed.
func NewBoxSource(grabber FrameGrabber, detector Detector) *BoxSource {
	return &BoxSource{
		grabber:  grabber,
		detector: detector,
		logger:   log.With("component", "boxsource"),
	}
}

// Detect captures a frame, detects faces and returns the synthesized
// mesh for the best one. No face yields an empty mesh and a nil error.
func (s *BoxSource) Detect() (landmarks.FaceLandmarks, error) {
	frame, err := s.grabber.CaptureJPEG()
	if err != nil {
		return landmarks.FaceLandmarks{}, fmt.Errorf("capture frame: %w", err)
	}

	dets, err := s.detector.Detect(frame)
	if err != nil {
		return landmarks.FaceLandmarks{}, fmt.Errorf("detect faces: %w", err)
	}

	best := SelectBest(dets)
	if best == nil {
		return landmarks.FaceLandmarks{}, nil
	}
	s.logger.Debug("face", "confidence", best.Confidence, "w", best.W, "h", best.H)
	return MeshFromDetection(*best), nil
}

// Close releases the detector.
func (s *BoxSource) Close() error {
	return s.detector.Close()
}

// MeshFromDetection synthesizes the semantic landmark points from a face
// detection. Points outside the subset stay zero.
func MeshFromDetection(d Detection) landmarks.FaceLandmarks {
	cx, cy := d.Center()
	points := make([]landmarks.Point3D, landmarks.NumLandmarks)

	points[landmarks.NoseTip] = landmarks.Point3D{X: cx, Y: cy + d.H*noseOffsetY}
	points[landmarks.Forehead] = landmarks.Point3D{X: cx, Y: cy - d.H*foreheadOffsetY}

	leftX, leftY := cx-d.W*eyeOffsetX, cy-d.H*eyeOffsetY
	rightX, rightY := cx+d.W*eyeOffsetX, cy-d.H*eyeOffsetY
	if d.HasKeypoints() {
		// Detector keypoints are in subject orientation: the subject's
		// left eye appears on the image's right side.
		leftX, leftY = d.RightEye.X, d.RightEye.Y
		rightX, rightY = d.LeftEye.X, d.LeftEye.Y
	}

	fillEye(points, landmarks.LeftEyeTop, landmarks.LeftEyeBottom,
		landmarks.LeftEyeLeft, landmarks.LeftEyeRight, leftX, leftY, d)
	fillEye(points, landmarks.RightEyeTop, landmarks.RightEyeBottom,
		landmarks.RightEyeLeft, landmarks.RightEyeRight, rightX, rightY, d)

	return landmarks.New(points)
}

func fillEye(points []landmarks.Point3D, top, bottom, left, right int, ex, ey float64, d Detection) {
	points[top] = landmarks.Point3D{X: ex, Y: ey - d.H*lidOffsetY}
	points[bottom] = landmarks.Point3D{X: ex, Y: ey + d.H*lidOffsetY}
	points[left] = landmarks.Point3D{X: ex - d.W*eyeCornerX, Y: ey}
	points[right] = landmarks.Point3D{X: ex + d.W*eyeCornerX, Y: ey}
}
