// Package camera captures frames from a local video device via OpenCV.
package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/clarivue/go-iris/internal/log"
)

var ErrClosed = errors.New("camera: closed")

// Config holds capture parameters. The device may silently pick the
// nearest supported mode; Camera reports what it actually got.
type Config struct {
	Index  int
	Width  int
	Height int
	FPS    int
}

// DefaultConfig matches the pipeline's expected capture mode.
func DefaultConfig() Config {
	return Config{Index: 0, Width: 640, Height: 480, FPS: 30}
}

// Camera wraps a gocv VideoCapture and hands out JPEG-encoded frames.
type Camera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	width   int
	height  int
}

// Open opens the capture device and applies the requested mode.
func Open(cfg Config) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Index, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))

	actualW := int(capture.Get(gocv.VideoCaptureFrameWidth))
	actualH := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if actualW != cfg.Width || actualH != cfg.Height {
		log.Warn("camera mode differs from request",
			"requested_w", cfg.Width, "requested_h", cfg.Height,
			"actual_w", actualW, "actual_h", actualH)
	}
	log.Info("camera opened", "index", cfg.Index, "width", actualW, "height", actualH)

	return &Camera{
		capture: capture,
		frame:   gocv.NewMat(),
		width:   actualW,
		height:  actualH,
	}, nil
}

// Size returns the actual capture dimensions.
func (c *Camera) Size() (width, height int) {
	return c.width, c.height
}

// CaptureJPEG reads one frame and returns it JPEG-encoded.
func (c *Camera) CaptureJPEG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrClosed
	}
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, errors.New("camera: read frame failed")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. Safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	c.frame.Close()
	err := c.capture.Close()
	c.capture = nil
	return err
}
