package pipeline

import (
	"image"
	"image/color"
	"time"
)

// DisplaySize is the fixed raster size of the in-vehicle display. Every
// frame leaving the pipeline has exactly this shape.
type DisplaySize struct {
	Width  int
	Height int
}

// Frame is a packed 3-channel RGB raster, 3 bytes per pixel in row-major
// order. It implements image.Image and draw.Image so standard drawing
// code (fonts, uniform fills) works on it directly.
type Frame struct {
	Width     int
	Height    int
	Pix       []uint8
	Seq       uint64
	Timestamp time.Time
}

// NewFrame allocates a black frame of the given size.
func NewFrame(size DisplaySize) *Frame {
	return &Frame{
		Width:  size.Width,
		Height: size.Height,
		Pix:    make([]uint8, 3*size.Width*size.Height),
	}
}

// Matches reports whether the frame has exactly the display shape.
func (f *Frame) Matches(size DisplaySize) bool {
	return f.Width == size.Width && f.Height == size.Height &&
		len(f.Pix) == 3*size.Width*size.Height
}

// Clone returns a deep copy sharing no pixel storage with the original.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Width:     f.Width,
		Height:    f.Height,
		Pix:       pix,
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
	}
}

func (f *Frame) offset(x, y int) int {
	return 3 * (y*f.Width + x)
}

// SetRGB writes one pixel. Out-of-bounds writes are dropped, so callers
// drawing near the edges need no explicit clipping.
func (f *Frame) SetRGB(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := f.offset(x, y)
	f.Pix[i] = r
	f.Pix[i+1] = g
	f.Pix[i+2] = b
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	i := f.offset(x, y)
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 255}
}

// Set implements draw.Image.
func (f *Frame) Set(x, y int, c color.Color) {
	r, g, b, _ := c.RGBA()
	f.SetRGB(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
