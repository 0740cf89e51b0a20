package tracker

import "github.com/clarivue/go-iris/pkg/landmarks"

// MockSource is a scripted landmark source for tests and dry runs.
// Frames are returned in order; when the script runs out the last frame
// repeats.
type MockSource struct {
	Frames []landmarks.FaceLandmarks
	Err    error // returned on every Detect when set

	index  int
	Closed bool
}

// Detect implements Source.
func (m *MockSource) Detect() (landmarks.FaceLandmarks, error) {
	if m.Err != nil {
		return landmarks.FaceLandmarks{}, m.Err
	}
	if len(m.Frames) == 0 {
		return landmarks.FaceLandmarks{}, nil
	}
	frame := m.Frames[m.index]
	if m.index < len(m.Frames)-1 {
		m.index++
	}
	return frame, nil
}

// Close implements Source.
func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}
