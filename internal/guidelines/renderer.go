// Package guidelines draws the parking-guide overlay: two rails running
// from the bottom edge toward the horizon, split into near/mid/far
// distance bands with a cross rung at each band boundary.
package guidelines

import (
	"backupcam/internal/pipeline"
)

type bandColor struct{ r, g, b uint8 }

var (
	nearBand = bandColor{220, 40, 40}
	midBand  = bandColor{240, 200, 40}
	farBand  = bandColor{60, 200, 80}
)

// Renderer draws guideline geometry onto frames. It is stateless; the
// overlay is a pure function of the frame and the properties.
type Renderer struct{}

// NewRenderer creates a guideline renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render implements pipeline.GuidelineRenderer. A hidden overlay returns
// the input frame unchanged without copying; otherwise the overlay is
// drawn on a clone and the input stays untouched. Geometry that falls
// outside the frame is clipped, never an error.
func (r *Renderer) Render(f *pipeline.Frame, props pipeline.GuidelineProperties) (*pipeline.Frame, error) {
	if !props.Visible {
		return f, nil
	}

	out := f.Clone()

	w := float64(f.Width)
	h := float64(f.Height)
	bottomY := f.Height - 1
	horizonY := int(props.Horizon * h)
	if horizonY >= bottomY {
		// Degenerate geometry collapses to nothing; clip it all away.
		return out, nil
	}

	centerX := props.CenterX * w
	bottomHalf := props.BottomSpread * w / 2
	topHalf := props.TopSpread * w / 2
	span := float64(bottomY - horizonY)

	for y := bottomY; y >= horizonY; y-- {
		// t runs 0 at the bumper edge to 1 at the horizon.
		t := float64(bottomY-y) / span
		c := bandFor(t)
		half := bottomHalf + (topHalf-bottomHalf)*t
		drawHSpan(out, int(centerX-half), y, props.Thickness, c)
		drawHSpan(out, int(centerX+half), y, props.Thickness, c)
	}

	// Cross rungs mark the band boundaries.
	for _, t := range []float64{1.0 / 3, 2.0 / 3, 1} {
		y := bottomY - int(t*span)
		c := bandFor(t - 0.01)
		half := bottomHalf + (topHalf-bottomHalf)*t
		for th := 0; th < props.Thickness; th++ {
			for x := int(centerX - half); x <= int(centerX+half); x++ {
				out.SetRGB(x, y+th, c.r, c.g, c.b)
			}
		}
	}

	return out, nil
}

// bandFor maps a position along the rail to its distance band.
func bandFor(t float64) bandColor {
	switch {
	case t < 1.0/3:
		return nearBand
	case t < 2.0/3:
		return midBand
	default:
		return farBand
	}
}

// drawHSpan draws a short horizontal run of thickness pixels starting at
// x. SetRGB drops out-of-bounds writes, which is all the clipping needed.
func drawHSpan(f *pipeline.Frame, x, y, thickness int, c bandColor) {
	for i := 0; i < thickness; i++ {
		f.SetRGB(x+i, y, c.r, c.g, c.b)
	}
}

var _ pipeline.GuidelineRenderer = (*Renderer)(nil)
