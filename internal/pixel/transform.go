package pixel

// Orient applies the EXIF orientation to a buffer and returns the upright
// result. Orientations 3, 6 and 8 get explicit remapping; 1 and anything
// unrecognized pass through unchanged. The mirrored orientations 2, 4, 5
// and 7 are intentionally treated as identity; camera files in the wild
// essentially never use them.
//
// The input buffer is consumed: callers must not touch it afterwards.
func Orient(b *Buffer, orientation int) *Buffer {
	switch orientation {
	case 3:
		return rotate180(b)
	case 6:
		return rotate90CW(b)
	case 8:
		return rotate90CCW(b)
	default:
		return b
	}
}

func rotate180(b *Buffer) *Buffer {
	out := New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl := b.At(x, y)
			out.Set(b.Width-1-x, b.Height-1-y, r, g, bl)
		}
	}
	return out
}

// rotate90CW turns the image a quarter turn clockwise, swapping dimensions.
func rotate90CW(b *Buffer) *Buffer {
	out := New(b.Height, b.Width)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl := b.At(x, y)
			out.Set(b.Height-1-y, x, r, g, bl)
		}
	}
	return out
}

// rotate90CCW turns the image a quarter turn counter-clockwise, swapping
// dimensions.
func rotate90CCW(b *Buffer) *Buffer {
	out := New(b.Height, b.Width)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl := b.At(x, y)
			out.Set(y, b.Width-1-x, r, g, bl)
		}
	}
	return out
}

// Halve reduces the buffer to half size per axis with nearest-neighbor
// sampling: destination (x, y) takes source (2x, 2y). Inputs already at
// 1x1 (or a degenerate axis) are returned unchanged.
//
// The input buffer is consumed.
func Halve(b *Buffer) *Buffer {
	w, h := b.Width/2, b.Height/2
	if w < 1 || h < 1 {
		return b
	}
	out := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := b.At(2*x, 2*y)
			out.Set(x, y, r, g, bl)
		}
	}
	return out
}
