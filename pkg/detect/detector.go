// Package detect provides face detection backends for the gaze pipeline.
package detect

// Point is a normalized image coordinate.
type Point struct {
	X, Y float64
}

// Detection represents a detected face.
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)

	// Keypoints reported by the detector, normalized. Zero values mean
	// the backend did not provide them.
	RightEye   Point
	LeftEye    Point
	Nose       Point
	MouthRight Point
	MouthLeft  Point
}

// Center returns the center point of the bounding box.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// HasKeypoints reports whether the backend filled in eye keypoints.
func (d Detection) HasKeypoints() bool {
	return d.LeftEye != (Point{}) && d.RightEye != (Point{})
}

// Detector is the interface for face detection backends.
type Detector interface {
	// Detect finds faces in the JPEG image and returns their positions.
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the best face from multiple detections, scoring
// confidence at 0.7 and relative area at 0.3. Larger, more confident
// faces win, which keeps the tracker on the user closest to the camera.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	if len(dets) == 1 {
		return &dets[0]
	}

	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}

	bestScore := -1.0
	var best *Detection
	for i := range dets {
		score := dets[i].Confidence * 0.7
		if maxArea > 0 {
			score += (dets[i].Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}
	return best
}
