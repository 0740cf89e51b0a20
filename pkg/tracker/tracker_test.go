package tracker

import (
	"errors"
	"testing"

	"github.com/clarivue/go-iris/pkg/landmarks"
)

// testMesh builds a full mesh with open eyes at the given nose/forehead
// position.
func testMesh(noseX, foreheadY float64) landmarks.FaceLandmarks {
	return testMeshEyes(noseX, foreheadY, 0.35, 0.35)
}

// testMeshEyes additionally sets both eye aspect ratios.
func testMeshEyes(noseX, foreheadY, leftEAR, rightEAR float64) landmarks.FaceLandmarks {
	points := make([]landmarks.Point3D, landmarks.NumLandmarks)
	points[landmarks.NoseTip] = landmarks.Point3D{X: noseX, Y: 0.5}
	points[landmarks.Forehead] = landmarks.Point3D{X: 0.5, Y: foreheadY}

	leftVertical := leftEAR * 0.1
	points[landmarks.LeftEyeTop] = landmarks.Point3D{X: 0.4, Y: 0.35}
	points[landmarks.LeftEyeBottom] = landmarks.Point3D{X: 0.4, Y: 0.35 + leftVertical}
	points[landmarks.LeftEyeLeft] = landmarks.Point3D{X: 0.35, Y: 0.36}
	points[landmarks.LeftEyeRight] = landmarks.Point3D{X: 0.45, Y: 0.36}

	rightVertical := rightEAR * 0.1
	points[landmarks.RightEyeTop] = landmarks.Point3D{X: 0.6, Y: 0.35}
	points[landmarks.RightEyeBottom] = landmarks.Point3D{X: 0.6, Y: 0.35 + rightVertical}
	points[landmarks.RightEyeLeft] = landmarks.Point3D{X: 0.55, Y: 0.36}
	points[landmarks.RightEyeRight] = landmarks.Point3D{X: 0.65, Y: 0.36}

	return landmarks.New(points)
}

func newRunningTracker(t *testing.T, cfg Config, source Source) *Tracker {
	t.Helper()
	tr := New(cfg, source)
	if err := tr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tr
}

func TestTracker_RequiresRunning(t *testing.T) {
	src := &MockSource{Frames: []landmarks.FaceLandmarks{testMesh(0.55, 0.37)}}
	tr := New(DefaultConfig(), src)

	// Uninitialized.
	if r := tr.ProcessFrame(); r.Valid {
		t.Error("uninitialized tracker should return the invalid sentinel")
	}

	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if r := tr.ProcessFrame(); !r.Valid {
		t.Error("running tracker should produce a valid result")
	}

	tr.Pause()
	if tr.Status() != StatusPaused {
		t.Errorf("Status = %v, want paused", tr.Status())
	}
	if r := tr.ProcessFrame(); r.Valid {
		t.Error("paused tracker should return the invalid sentinel")
	}

	tr.Resume()
	if r := tr.ProcessFrame(); !r.Valid {
		t.Error("resumed tracker should produce a valid result")
	}

	tr.Stop()
	if tr.Status() != StatusStopped {
		t.Errorf("Status = %v, want stopped", tr.Status())
	}
	if r := tr.ProcessFrame(); r.Valid {
		t.Error("stopped tracker should return the invalid sentinel")
	}
	if !src.Closed {
		t.Error("Stop should close the landmark source")
	}
}

func TestTracker_InitWithoutSource(t *testing.T) {
	tr := New(DefaultConfig(), nil)
	if err := tr.Init(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Init = %v, want ErrNoSource", err)
	}
	if tr.Status() != StatusError {
		t.Errorf("Status = %v, want error", tr.Status())
	}
}

func TestTracker_GazeResult(t *testing.T) {
	tr := newRunningTracker(t, DefaultConfig(), &MockSource{
		Frames: []landmarks.FaceLandmarks{testMesh(0.55, 0.37)},
	})

	var r Result
	for i := 0; i < 10; i++ {
		r = tr.ProcessFrame()
	}

	if !r.Valid || r.Event != EventGaze {
		t.Fatalf("expected a gaze result, got %+v", r)
	}
	if r.X < 0 || r.X > 1920 || r.Y < 0 || r.Y > 1080 {
		t.Errorf("result outside screen: %+v", r)
	}
}

func TestTracker_SourceErrorWithoutHistory(t *testing.T) {
	tr := newRunningTracker(t, DefaultConfig(), &MockSource{Err: errors.New("camera unplugged")})

	if r := tr.ProcessFrame(); r.Valid {
		t.Errorf("source failure with no history should be invalid, got %+v", r)
	}
}

func TestTracker_LastKnownGoodMesh(t *testing.T) {
	src := &MockSource{Frames: []landmarks.FaceLandmarks{testMesh(0.55, 0.37)}}
	tr := newRunningTracker(t, DefaultConfig(), src)

	for i := 0; i < 10; i++ {
		tr.ProcessFrame()
	}

	// Detection drops out: the smoothed snapshot keeps the cursor alive.
	src.Err = errors.New("no face")
	r := tr.ProcessFrame()
	if !r.Valid || r.Event != EventGaze {
		t.Errorf("expected last-known-good mesh to keep producing, got %+v", r)
	}
}

func TestTracker_WinkProducesBlinkResult(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WinkFrames = 3
	open := testMesh(0.55, 0.37)
	wink := testMeshEyes(0.55, 0.37, 0.15, 0.35)

	src := &MockSource{Frames: []landmarks.FaceLandmarks{open}}
	tr := newRunningTracker(t, cfg, src)
	for i := 0; i < 5; i++ {
		tr.ProcessFrame()
	}

	src.Frames = []landmarks.FaceLandmarks{wink}
	src.index = 0

	var blinkResults []Result
	for i := 0; i < 6; i++ {
		r := tr.ProcessFrame()
		if r.Event == EventBlink {
			blinkResults = append(blinkResults, r)
		}
	}

	if len(blinkResults) != 1 {
		t.Fatalf("wink should fire exactly once per closure, got %d blink results", len(blinkResults))
	}
	if blinkResults[0].Eye != EyeLeft {
		t.Errorf("expected left-eye wink, got %v", blinkResults[0].Eye)
	}
}

func TestTracker_LongBlinkOneShot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongBlinkFrames = 4
	open := testMesh(0.55, 0.37)
	closed := testMeshEyes(0.55, 0.37, 0.15, 0.15)

	src := &MockSource{Frames: []landmarks.FaceLandmarks{open}}
	tr := newRunningTracker(t, cfg, src)
	for i := 0; i < 5; i++ {
		tr.ProcessFrame()
	}

	src.Frames = []landmarks.FaceLandmarks{closed}
	src.index = 0

	// The smoothed eye ratios take a frame to cross the threshold, so the
	// trigger lands at LongBlinkFrames+1 at the earliest. Over a long held
	// closure exactly one both-eye blink fires, and every frame after it
	// keeps reporting the frozen cursor.
	blinkAt := -1
	for i := 0; i < 12; i++ {
		r := tr.ProcessFrame()
		if r.Event == EventBlink {
			if blinkAt >= 0 {
				t.Fatalf("frame %d: long blink re-fired while held (first at %d)", i+1, blinkAt+1)
			}
			blinkAt = i
			if r.Eye != EyeBoth {
				t.Fatalf("expected both-eye blink, got %v", r.Eye)
			}
			continue
		}
		if blinkAt >= 0 && r != tr.LastResult() {
			t.Errorf("frame %d: held closure should report the frozen cursor", i+1)
		}
	}
	if blinkAt < cfg.LongBlinkFrames {
		t.Fatalf("long blink fired at frame %d, want >= %d", blinkAt+1, cfg.LongBlinkFrames+1)
	}
	if got := tr.LastResult(); got.Event == EventBlink {
		t.Errorf("blink results must not be cached as the held cursor, got %+v", got)
	}

	// Reopen, close again: fires a second time.
	src.Frames = []landmarks.FaceLandmarks{open}
	src.index = 0
	for i := 0; i < 4; i++ {
		tr.ProcessFrame()
	}
	src.Frames = []landmarks.FaceLandmarks{closed}
	src.index = 0
	fired := false
	for i := 0; i < 8; i++ {
		if r := tr.ProcessFrame(); r.Event == EventBlink && r.Eye == EyeBoth {
			fired = true
			break
		}
	}
	if !fired {
		t.Error("long blink should fire again after reopening")
	}
}

func TestTracker_RuntimeRetuning(t *testing.T) {
	tr := newRunningTracker(t, DefaultConfig(), &MockSource{
		Frames: []landmarks.FaceLandmarks{testMesh(0.55, 0.37)},
	})

	tr.SetConfig(Config{BlinkThreshold: 0.30, WinkFrames: 4, ReachGainX: 1.5})

	cfg := tr.Config()
	if cfg.BlinkThreshold != 0.30 || cfg.WinkFrames != 4 {
		t.Errorf("blink tuning not applied: %+v", cfg)
	}
	if cfg.ReachGainX != 1.5 {
		t.Errorf("reach gain not applied: %+v", cfg)
	}
	// Untouched fields keep their values.
	if cfg.ScreenWidth != 1920 || cfg.Deadzone != DefaultConfig().Deadzone {
		t.Errorf("partial update clobbered other fields: %+v", cfg)
	}

	tr.SetConfig(Config{FilterMinCutoff: 3.5, FilterBeta: 1.2})
	cfg = tr.Config()
	if cfg.FilterMinCutoff != 3.5 || cfg.FilterBeta != 1.2 {
		t.Errorf("output filter tuning not applied: %+v", cfg)
	}
	if r := tr.ProcessFrame(); !r.Valid {
		t.Error("tracker should keep producing with the output filter on")
	}
}

func TestTracker_ResultJSONShape(t *testing.T) {
	if EventNone.String() != "none" || EventGaze.String() != "gaze" || EventBlink.String() != "blink" {
		t.Error("event type names changed")
	}
	if EyeNone.String() != "none" || EyeLeft.String() != "left" ||
		EyeRight.String() != "right" || EyeBoth.String() != "both" {
		t.Error("blink eye names changed")
	}
	if Invalid().Valid {
		t.Error("Invalid() must not be valid")
	}
	r := BlinkResult(10, 20, EyeBoth)
	if !r.Valid || r.Event != EventBlink || r.Eye != EyeBoth {
		t.Errorf("BlinkResult malformed: %+v", r)
	}
}
