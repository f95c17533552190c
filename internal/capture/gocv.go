// Package capture provides the OpenCV-backed frame grabber used for real
// camera devices and video files.
package capture

import (
	"fmt"
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"backupcam/internal/pipeline"
	"backupcam/internal/source"
)

// DefaultFPS is requested from capture devices when the caller does not
// specify a rate.
const DefaultFPS = 30

// Grabber reads frames from a device index or a video file via GoCV and
// converts them to display-sized RGB frames. It implements
// pipeline.FrameGrabber; the acquirer serializes all calls, so Grabber
// needs no locking of its own.
type Grabber struct {
	display pipeline.DisplaySize
	fps     int
	logger  *log.Logger

	cap  *gocv.VideoCapture
	kind source.Kind
	bgr  gocv.Mat
	rgb  gocv.Mat
	seq  uint64
}

// NewGrabber creates a grabber with no source open.
func NewGrabber(display pipeline.DisplaySize, fps int, logger *log.Logger) *Grabber {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Grabber{
		display: display,
		fps:     fps,
		logger:  logger,
		kind:    source.KindNone,
		bgr:     gocv.NewMat(),
		rgb:     gocv.NewMat(),
	}
}

// Open implements pipeline.FrameGrabber. Opening source.None just closes
// the current source; subsequent grabs report unavailable.
func (g *Grabber) Open(ref source.Ref) error {
	g.closeCapture()
	g.kind = source.KindNone

	switch ref.Kind {
	case source.KindNone:
		return nil

	case source.KindDevice:
		cap, err := gocv.OpenVideoCapture(ref.Index)
		if err != nil {
			return fmt.Errorf("open device %d: %w", ref.Index, err)
		}
		cap.Set(gocv.VideoCaptureFrameWidth, float64(g.display.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(g.display.Height))
		cap.Set(gocv.VideoCaptureFPS, float64(g.fps))
		g.cap = cap

	case source.KindFile:
		cap, err := gocv.VideoCaptureFile(ref.Path)
		if err != nil {
			return fmt.Errorf("open file %s: %w", ref.Path, err)
		}
		g.cap = cap

	default:
		return fmt.Errorf("unsupported source kind %s", ref.Kind)
	}

	g.kind = ref.Kind
	g.logger.Printf("[Capture] opened %s", ref)
	return nil
}

// Grab implements pipeline.FrameGrabber. File sources rewind at EOF so a
// looped demo clip keeps playing.
func (g *Grabber) Grab() (*pipeline.Frame, error) {
	if g.cap == nil {
		return nil, pipeline.ErrSourceUnavailable
	}

	if !g.readFrame() {
		if g.kind != source.KindFile || !g.rewind() || !g.readFrame() {
			return nil, pipeline.ErrSourceUnavailable
		}
	}

	if g.bgr.Cols() != g.display.Width || g.bgr.Rows() != g.display.Height {
		gocv.Resize(g.bgr, &g.bgr,
			image.Pt(g.display.Width, g.display.Height), 0, 0,
			gocv.InterpolationLinear)
	}
	gocv.CvtColor(g.bgr, &g.rgb, gocv.ColorBGRToRGB)

	g.seq++
	frame := &pipeline.Frame{
		Width:     g.display.Width,
		Height:    g.display.Height,
		Pix:       g.rgb.ToBytes(),
		Seq:       g.seq,
		Timestamp: time.Now(),
	}
	return frame, nil
}

func (g *Grabber) readFrame() bool {
	return g.cap.Read(&g.bgr) && !g.bgr.Empty()
}

// rewind seeks a file source back to its first frame.
func (g *Grabber) rewind() bool {
	g.cap.Set(gocv.VideoCapturePosFrames, 0)
	return true
}

// Close implements pipeline.FrameGrabber.
func (g *Grabber) Close() error {
	g.closeCapture()
	g.bgr.Close()
	g.rgb.Close()
	return nil
}

func (g *Grabber) closeCapture() {
	if g.cap != nil {
		g.cap.Close()
		g.cap = nil
	}
}

var _ pipeline.FrameGrabber = (*Grabber)(nil)
