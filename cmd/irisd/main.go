// irisd is the gaze tracking daemon: it captures webcam frames, detects
// the user's face and streams a stabilized cursor position plus blink
// events over HTTP and websockets.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clarivue/go-iris/internal/config"
	"github.com/clarivue/go-iris/internal/log"
	"github.com/clarivue/go-iris/pkg/camera"
	"github.com/clarivue/go-iris/pkg/detect"
	"github.com/clarivue/go-iris/pkg/gaze"
	"github.com/clarivue/go-iris/pkg/tracker"
	"github.com/clarivue/go-iris/pkg/web"
)

// cameraStreamStride sends every Nth frame to dashboard clients.
const cameraStreamStride = 5

func main() {
	opts := parseFlags()
	log.Init(opts.logLevel)

	cam, err := camera.Open(camera.Config{
		Index:  opts.cameraIndex,
		Width:  opts.trackerCfg.CameraWidth,
		Height: opts.trackerCfg.CameraHeight,
		FPS:    opts.trackerCfg.TargetFPS,
	})
	if err != nil {
		log.Error("open camera", "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	detector, err := detect.NewYuNet(detect.Config{
		ModelPath:        opts.modelPath,
		ConfidenceThresh: 0.5,
		InputWidth:       opts.trackerCfg.CameraWidth,
		InputHeight:      opts.trackerCfg.CameraHeight,
	})
	if err != nil {
		log.Error("load face detector", "error", err)
		os.Exit(1)
	}

	tee := &frameTee{grabber: cam}
	source := detect.NewBoxSource(tee, detector)

	tr := tracker.New(opts.trackerCfg, source)
	if err := tr.Init(); err != nil {
		log.Error("init tracker", "error", err)
		os.Exit(1)
	}
	defer tr.Stop()

	if opts.calibrationPath != "" {
		applyCalibrationFile(tr, opts.calibrationPath)
	}
	if opts.debug {
		tr.SetTracer(&gaze.SlogTracer{Logger: log.L()})
	}

	server := web.NewServer(opts.port, tr)
	server.SetCameraConnected(true)
	tr.SetStateUpdater(server)
	server.StartAsync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run(ctx, tr, server, tee, opts.trackerCfg.TargetFPS)

	log.Info("shutting down")
	server.Shutdown()
}

// run drives the pipeline at the target frame rate until ctx is done.
func run(ctx context.Context, tr *tracker.Tracker, server *web.Server, tee *frameTee, fps int) {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tr.ProcessFrame()

			frame++
			if frame%cameraStreamStride == 0 {
				if jpeg := tee.latest(); jpeg != nil {
					server.SendCameraFrame(jpeg)
				}
			}
		}
	}
}

// applyCalibrationFile loads a saved range and reach gains, falling back
// to auto-calibration when the file is unreadable.
func applyCalibrationFile(tr *tracker.Tracker, path string) {
	r, err := gaze.LoadCalibrationFile(path)
	if err != nil {
		log.Warn("calibration file unusable, auto-calibrating", "path", path, "error", err)
		return
	}
	if err := tr.SetCalibration(r); err != nil {
		log.Warn("calibration rejected, auto-calibrating", "path", path, "error", err)
		return
	}
	log.Info("calibration loaded", "path", path,
		"x_min", r.XMin, "x_max", r.XMax, "y_min", r.YMin, "y_max", r.YMax)

	if data, err := os.ReadFile(path); err == nil {
		if gainX, gainY, ok := gaze.ParseReachGain(data); ok {
			cfg := tracker.Config{ReachGainX: gainX, ReachGainY: gainY}
			tr.SetConfig(cfg)
			log.Info("reach gain loaded", "x", gainX, "y", gainY)
		}
	}
}

// frameTee forwards capture calls and keeps the most recent frame for
// the dashboard camera stream.
type frameTee struct {
	grabber detect.FrameGrabber

	mu   sync.Mutex
	last []byte
}

func (t *frameTee) CaptureJPEG() ([]byte, error) {
	frame, err := t.grabber.CaptureJPEG()
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.last = frame
	t.mu.Unlock()
	return frame, nil
}

func (t *frameTee) latest() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

type options struct {
	port            string
	cameraIndex     int
	modelPath       string
	calibrationPath string
	logLevel        string
	debug           bool
	trackerCfg      tracker.Config
}

// parseFlags merges flags over environment defaults.
func parseFlags() options {
	cfg := tracker.DefaultConfig()
	defW, defH := config.ScreenSize(cfg.ScreenWidth, cfg.ScreenHeight)

	port := flag.String("port", config.HTTPPort(), "HTTP API port")
	cameraIndex := flag.Int("camera", config.CameraIndex(), "Capture device index")
	modelPath := flag.String("model", config.ModelPath(detect.DefaultConfig().ModelPath), "Face detection ONNX model path")
	calibration := flag.String("calibration", config.CalibrationPath(), "Calibration file (empty = auto-calibrate)")
	screenW := flag.Int("screen-width", defW, "Target screen width in pixels")
	screenH := flag.Int("screen-height", defH, "Target screen height in pixels")
	preset := flag.String("preset", "default", "Tuning preset: default, smooth, responsive")
	tremor := flag.Bool("tremor-filter", false, "Extra adaptive smoothing of the cursor output")
	debug := flag.Bool("debug", false, "Enable per-frame pipeline tracing")
	flag.Parse()

	switch *preset {
	case "smooth":
		cfg = tracker.SmoothConfig()
	case "responsive":
		cfg = tracker.ResponsiveConfig()
	}
	cfg.ScreenWidth, cfg.ScreenHeight = *screenW, *screenH
	if *tremor {
		cfg.FilterMinCutoff, cfg.FilterBeta = 3.5, 1.2
	}

	level := "info"
	if *debug {
		level = "debug"
	}

	return options{
		port:            *port,
		cameraIndex:     *cameraIndex,
		modelPath:       *modelPath,
		calibrationPath: *calibration,
		logLevel:        level,
		debug:           *debug,
		trackerCfg:      cfg,
	}
}
