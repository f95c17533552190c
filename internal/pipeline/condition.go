package pipeline

// conditionFrame applies the image-conditioning stage: brightness and
// contrast through a lookup table, then center digital zoom. The result
// is always a new frame of the same shape; the input is never written to.
func conditionFrame(in *Frame, props ImageProperties) *Frame {
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		c := float64(v)*props.Contrast + props.Brightness
		if c < 0 {
			c = 0
		} else if c > 255 {
			c = 255
		}
		lut[v] = uint8(c)
	}

	out := &Frame{
		Width:     in.Width,
		Height:    in.Height,
		Pix:       make([]uint8, len(in.Pix)),
		Seq:       in.Seq,
		Timestamp: in.Timestamp,
	}

	if props.Zoom <= 1 {
		for i, v := range in.Pix {
			out.Pix[i] = lut[v]
		}
		return out
	}

	// Nearest-neighbor sampling from a centered crop of 1/zoom the size.
	srcW := float64(in.Width) / props.Zoom
	srcH := float64(in.Height) / props.Zoom
	x0 := (float64(in.Width) - srcW) / 2
	y0 := (float64(in.Height) - srcH) / 2

	for y := 0; y < in.Height; y++ {
		sy := int(y0 + float64(y)*srcH/float64(in.Height))
		if sy >= in.Height {
			sy = in.Height - 1
		}
		for x := 0; x < in.Width; x++ {
			sx := int(x0 + float64(x)*srcW/float64(in.Width))
			if sx >= in.Width {
				sx = in.Width - 1
			}
			si := in.offset(sx, sy)
			di := out.offset(x, y)
			out.Pix[di] = lut[in.Pix[si]]
			out.Pix[di+1] = lut[in.Pix[si+1]]
			out.Pix[di+2] = lut[in.Pix[si+2]]
		}
	}
	return out
}
