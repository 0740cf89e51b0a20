package tracker

import "github.com/clarivue/go-iris/pkg/landmarks"

// Source produces one frame of facial landmarks per call. Implementations
// include the neural face mesh path and the degraded box-estimation
// fallback; the tracker treats them identically.
//
// An empty FaceLandmarks with a nil error means "no face in this frame";
// errors are reserved for the capture/inference machinery failing.
type Source interface {
	// Detect captures and processes one frame.
	Detect() (landmarks.FaceLandmarks, error)

	// Close releases capture and model resources.
	Close() error
}

// SourceFunc adapts a function to the Source interface for tests and
// simple pipelines.
type SourceFunc func() (landmarks.FaceLandmarks, error)

// Detect implements Source.
func (f SourceFunc) Detect() (landmarks.FaceLandmarks, error) {
	return f()
}

// Close implements Source.
func (f SourceFunc) Close() error {
	return nil
}
