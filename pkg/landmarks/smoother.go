package landmarks

// DefaultSmoothingAlpha is the EMA factor applied to raw mesh output.
// Higher trusts new readings more; lag is roughly proportional to 1/alpha.
const DefaultSmoothingAlpha = 0.35

// Smoother holds an exponentially smoothed copy of the landmark array.
// It survives frames where detection fails, so callers can fall back to the
// last-known-good mesh.
//
// Owned by a single caller; not safe for concurrent use.
type Smoother struct {
	smoothed    []Point3D
	alpha       float64
	initialized bool
}

// NewSmoother creates a smoother with the given EMA factor.
// Alpha outside (0,1] falls back to DefaultSmoothingAlpha.
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothingAlpha
	}
	return &Smoother{alpha: alpha}
}

// Smooth folds a new landmark array into the smoothed state and returns the
// result. On the first call, or when the incoming length differs from the
// stored one, the new values are adopted verbatim.
func (s *Smoother) Smooth(points []Point3D) []Point3D {
	if !s.initialized || len(s.smoothed) != len(points) {
		s.smoothed = append(s.smoothed[:0], points...)
		s.initialized = true
		return s.smoothed
	}

	for i := range points {
		s.smoothed[i].X += s.alpha * (points[i].X - s.smoothed[i].X)
		s.smoothed[i].Y += s.alpha * (points[i].Y - s.smoothed[i].Y)
		s.smoothed[i].Z += s.alpha * (points[i].Z - s.smoothed[i].Z)
	}
	return s.smoothed
}

// Current returns the smoothed array, or nil before the first Smooth call.
func (s *Smoother) Current() []Point3D {
	if !s.initialized {
		return nil
	}
	return s.smoothed
}

// SetAlpha retunes the EMA factor. Values outside (0,1] are ignored.
func (s *Smoother) SetAlpha(alpha float64) {
	if alpha > 0 && alpha <= 1 {
		s.alpha = alpha
	}
}

// Reset discards the smoothed state.
func (s *Smoother) Reset() {
	s.smoothed = s.smoothed[:0]
	s.initialized = false
}
