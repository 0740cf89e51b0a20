// iris-calibrate samples the user's nose position while they look at each
// screen corner and writes the resulting calibration range to a file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/clarivue/go-iris/internal/config"
	"github.com/clarivue/go-iris/internal/log"
	"github.com/clarivue/go-iris/pkg/camera"
	"github.com/clarivue/go-iris/pkg/detect"
	"github.com/clarivue/go-iris/pkg/gaze"
)

const (
	samplesPerCorner = 30
	rangePadding     = 0.10
)

var corners = []string{
	"TOP-LEFT corner",
	"TOP-RIGHT corner",
	"BOTTOM-LEFT corner",
	"BOTTOM-RIGHT corner",
}

func main() {
	out := flag.String("out", "calibration.txt", "Output calibration file")
	cameraIndex := flag.Int("camera", config.CameraIndex(), "Capture device index")
	modelPath := flag.String("model", config.ModelPath(detect.DefaultConfig().ModelPath), "Face detection ONNX model path")
	flag.Parse()

	log.Init("info")

	cam, err := camera.Open(camera.Config{Index: *cameraIndex, Width: 640, Height: 480, FPS: 30})
	if err != nil {
		fatal("open camera: %v", err)
	}
	defer cam.Close()

	detector, err := detect.NewYuNet(detect.Config{
		ModelPath:        *modelPath,
		ConfidenceThresh: 0.5,
		InputWidth:       640,
		InputHeight:      480,
	})
	if err != nil {
		fatal("load face detector: %v", err)
	}

	source := detect.NewBoxSource(cam, detector)
	defer source.Close()

	fmt.Println("Gaze calibration")
	fmt.Println("Look at each corner of your screen and hold still while sampling.")
	fmt.Println()

	stdin := bufio.NewReader(os.Stdin)
	var xs, ys []float64
	for _, corner := range corners {
		fmt.Printf("Look at the %s and press Enter...", corner)
		stdin.ReadString('\n')

		x, y, err := sampleNose(source)
		if err != nil {
			fatal("sampling failed: %v", err)
		}
		fmt.Printf("  nose at (%.4f, %.4f)\n", x, y)
		xs, ys = append(xs, x), append(ys, y)
	}

	r := rangeFromSamples(xs, ys)
	if err := r.Validate(); err != nil {
		fatal("calibration range unusable (did you move between corners?): %v", err)
	}

	if err := gaze.WriteCalibrationFile(*out, r); err != nil {
		fatal("write %s: %v", *out, err)
	}
	fmt.Printf("\nCalibration written to %s\n", *out)
	fmt.Printf("  x: [%.4f, %.4f]  y: [%.4f, %.4f]\n", r.XMin, r.XMax, r.YMin, r.YMax)
	fmt.Printf("\nRun irisd with -calibration %s\n", *out)
}

// sampleNose averages the nose position over a second of frames.
func sampleNose(source *detect.BoxSource) (x, y float64, err error) {
	var sumX, sumY float64
	var n int

	for i := 0; i < samplesPerCorner; i++ {
		mesh, err := source.Detect()
		if err != nil {
			return 0, 0, err
		}
		if nose, ok := mesh.NoseTip(); ok {
			sumX += nose.X
			sumY += nose.Y
			n++
		}
		time.Sleep(time.Second / 30)
	}

	if n < samplesPerCorner/2 {
		return 0, 0, fmt.Errorf("face visible in only %d of %d frames", n, samplesPerCorner)
	}
	return sumX / float64(n), sumY / float64(n), nil
}

// rangeFromSamples takes the min/max over the corner averages and pads
// the range so the cursor can reach the edges comfortably.
func rangeFromSamples(xs, ys []float64) gaze.CalibrationRange {
	r := gaze.CalibrationRange{XMin: xs[0], XMax: xs[0], YMin: ys[0], YMax: ys[0]}
	for i := 1; i < len(xs); i++ {
		r.XMin = min(r.XMin, xs[i])
		r.XMax = max(r.XMax, xs[i])
		r.YMin = min(r.YMin, ys[i])
		r.YMax = max(r.YMax, ys[i])
	}

	padX := (r.XMax - r.XMin) * rangePadding
	padY := (r.YMax - r.YMin) * rangePadding
	r.XMin -= padX
	r.XMax += padX
	r.YMin -= padY
	r.YMax += padY
	return r
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
