package pipeline

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const placeholderText = "<NO VIDEO TO DISPLAY>"

// newPlaceholder synthesizes the frame shown whenever no real frame is
// available: black, display-sized, with a centered caption.
func newPlaceholder(size DisplaySize) *Frame {
	f := NewFrame(size)

	face := basicfont.Face7x13
	width := font.MeasureString(face, placeholderText).Ceil()
	x := (size.Width - width) / 2
	if x < 0 {
		x = 0
	}
	y := size.Height / 2

	d := &font.Drawer{
		Dst:  f,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(placeholderText)

	return f
}
