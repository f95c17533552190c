package pipeline

import "backupcam/internal/source"

// FrameGrabber is the capture backend owned by the acquirer. Exactly one
// goroutine touches a grabber at a time; the acquirer serializes Open,
// Grab and Close.
type FrameGrabber interface {
	// Open switches the grabber to the given source, closing any source
	// currently open. Opening source.None leaves the grabber closed.
	Open(ref source.Ref) error

	// Grab returns the next frame, or ErrSourceUnavailable when the
	// backend has no frame to give.
	Grab() (*Frame, error)

	// Close releases the underlying capture handle.
	Close() error
}

// Detection is one obstacle-detection reading.
type Detection struct {
	// Proximity is the estimated distance to the nearest obstacle in cm,
	// nil when no obstacle is visible.
	Proximity *float64

	// Triggered is true once the proximity has stayed at or below the
	// configured threshold for the debounce run length.
	Triggered bool
}

// ObstacleDetector analyzes frames for obstacles. It has no notion of
// operating mode; the pipeline decides whether to invoke it at all.
type ObstacleDetector interface {
	// Detect classifies one frame under the given properties. It runs
	// regardless of mute; mute is applied downstream.
	Detect(f *Frame, props DetectionProperties) (Detection, error)

	// Reset clears debounce state, e.g. when the detection stage was
	// switched off and back on.
	Reset()
}

// GuidelineRenderer draws the parking-guide overlay.
type GuidelineRenderer interface {
	// Render returns the frame with the overlay applied. When the
	// overlay is hidden the input frame is returned unchanged; otherwise
	// the result is a copy and the input is left untouched.
	Render(f *Frame, props GuidelineProperties) (*Frame, error)
}
