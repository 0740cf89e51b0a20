package tracker

// EventType discriminates what a Result carries.
type EventType uint8

const (
	EventNone EventType = iota
	EventGaze
	EventBlink
)

// String returns the wire name of the event type.
func (e EventType) String() string {
	switch e {
	case EventGaze:
		return "gaze"
	case EventBlink:
		return "blink"
	default:
		return "none"
	}
}

// BlinkEye identifies which eye(s) a blink event came from.
type BlinkEye uint8

const (
	EyeNone BlinkEye = iota
	EyeLeft
	EyeRight
	EyeBoth
)

// String returns the wire name of the blink eye.
func (e BlinkEye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	case EyeBoth:
		return "both"
	default:
		return "none"
	}
}

// Result is the per-frame output of the tracker. Valid=false is the
// canonical "no data" sentinel. Results are frame-scoped: produced,
// returned, never retained by the core.
type Result struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Event EventType `json:"event_type"`
	Eye   BlinkEye  `json:"blink_eye"`
	Valid bool      `json:"valid"`
}

// GazeResult builds a valid gaze-position result.
func GazeResult(x, y float64) Result {
	return Result{X: x, Y: y, Event: EventGaze, Valid: true}
}

// BlinkResult builds a valid blink/wink event result at the given position.
func BlinkResult(x, y float64, eye BlinkEye) Result {
	return Result{X: x, Y: y, Event: EventBlink, Eye: eye, Valid: true}
}

// Invalid builds the no-data sentinel.
func Invalid() Result {
	return Result{}
}
