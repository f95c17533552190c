// Package detect estimates obstacle proximity from conditioned frames and
// debounces the alert trigger so single noisy frames cannot flicker the
// alarm.
package detect

import (
	"sync"

	"backupcam/internal/pipeline"
)

const (
	// scanFraction is the share of the frame height, measured from the
	// bottom edge, inspected for obstacles. Objects relevant while
	// reversing project into this region.
	scanFraction = 0.4

	// occupancy is the fraction of sampled columns in a row that must
	// respond before the row counts as an obstacle edge.
	occupancy = 0.25

	// colStride subsamples columns to keep the per-tick cost bounded.
	colStride = 4

	// minProximityCm and maxProximityCm anchor the row-to-distance
	// mapping: the bottom edge of the frame is the closest measurable
	// distance, the top of the scan region the farthest.
	minProximityCm = 10.0
	maxProximityCm = 200.0
)

// Engine implements pipeline.ObstacleDetector. The debounce run counter
// is private, owned state: it resets on any reading above threshold and on
// Reset, and never leaks into the alert state the pipeline returns.
type Engine struct {
	mu  sync.Mutex
	run int
}

// NewEngine creates a detection engine with an empty debounce run.
func NewEngine() *Engine {
	return &Engine{}
}

// Detect estimates proximity from the frame and folds it into the
// debounce run. It runs identically whether or not alerts are muted.
func (e *Engine) Detect(f *pipeline.Frame, props pipeline.DetectionProperties) (pipeline.Detection, error) {
	return e.Observe(estimateProximity(f, props.Sensitivity), props), nil
}

// Observe classifies one proximity reading under the given properties.
// Triggered becomes true only after DebounceFrames consecutive readings at
// or below the threshold; any reading above it, or with no obstacle at
// all, resets the run.
func (e *Engine) Observe(proximity *float64, props pipeline.DetectionProperties) pipeline.Detection {
	e.mu.Lock()
	defer e.mu.Unlock()

	if proximity != nil && *proximity <= props.ThresholdCm {
		e.run++
	} else {
		e.run = 0
	}

	debounce := props.DebounceFrames
	if debounce < 1 {
		debounce = 1
	}

	return pipeline.Detection{
		Proximity: proximity,
		Triggered: e.run >= debounce,
	}
}

// Reset clears the debounce run, e.g. after the detection stage was
// switched off.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.run = 0
	e.mu.Unlock()
}

// estimateProximity scans the lower part of the frame for the closest row
// dominated by vertical luminance edges and maps that row to a distance.
// Closer obstacles project lower into the frame, so the scan walks from
// the bottom edge upward and stops at the first responding row. Returns
// nil when nothing responds.
func estimateProximity(f *pipeline.Frame, sensitivity float64) *float64 {
	if f == nil || f.Width == 0 || f.Height == 0 {
		return nil
	}

	scanTop := f.Height - int(scanFraction*float64(f.Height))
	if scanTop < 2 {
		scanTop = 2
	}
	bottom := f.Height - 1
	if bottom <= scanTop {
		return nil
	}

	// Higher sensitivity lowers the per-pixel edge threshold.
	edgeThreshold := 80.0 - 60.0*sensitivity

	for y := bottom; y >= scanTop; y-- {
		sampled := 0
		responding := 0
		for x := 0; x < f.Width; x += colStride {
			sampled++
			d := luma(f, x, y) - luma(f, x, y-2)
			if d < 0 {
				d = -d
			}
			if d > edgeThreshold {
				responding++
			}
		}
		if sampled == 0 {
			continue
		}
		if float64(responding)/float64(sampled) >= occupancy {
			// Linear row-to-distance mapping across the scan region.
			t := float64(bottom-y) / float64(bottom-scanTop)
			cm := minProximityCm + t*(maxProximityCm-minProximityCm)
			return &cm
		}
	}
	return nil
}

// luma approximates perceptual luminance from the RGB pixel at (x, y).
func luma(f *pipeline.Frame, x, y int) float64 {
	i := 3 * (y*f.Width + x)
	r := float64(f.Pix[i])
	g := float64(f.Pix[i+1])
	b := float64(f.Pix[i+2])
	return 0.299*r + 0.587*g + 0.114*b
}

var _ pipeline.ObstacleDetector = (*Engine)(nil)
