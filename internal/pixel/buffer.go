package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Channels is the channel count of every pipeline buffer. The pipeline works
// exclusively in interleaved 8-bit RGB.
const Channels = 3

// Buffer is a contiguous interleaved RGB pixel buffer with its dimensions.
// Invariant: len(Pix) == Width*Height*Channels.
type Buffer struct {
	Pix    []byte
	Width  int
	Height int
}

// New allocates a zeroed buffer for the given dimensions.
func New(width, height int) *Buffer {
	return &Buffer{
		Pix:    make([]byte, width*height*Channels),
		Width:  width,
		Height: height,
	}
}

// Validate checks the size invariant.
func (b *Buffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("pixel: invalid dimensions %dx%d", b.Width, b.Height)
	}
	if want := b.Width * b.Height * Channels; len(b.Pix) != want {
		return fmt.Errorf("pixel: buffer length %d, want %d for %dx%d",
			len(b.Pix), want, b.Width, b.Height)
	}
	return nil
}

// At returns the RGB triple at (x, y). Caller must stay in bounds.
func (b *Buffer) At(x, y int) (r, g, bl byte) {
	i := (y*b.Width + x) * Channels
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Set stores the RGB triple at (x, y). Caller must stay in bounds.
func (b *Buffer) Set(x, y int, r, g, bl byte) {
	i := (y*b.Width + x) * Channels
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = r, g, bl
}

// FromImage converts a decoded image to an RGB buffer, dropping any alpha.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := New(w, h)

	// Fast path for the common decoder output types.
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			di := y * w * Channels
			for x := 0; x < w; x++ {
				out.Pix[di] = src.Pix[si]
				out.Pix[di+1] = src.Pix[si+1]
				out.Pix[di+2] = src.Pix[si+2]
				si += 4
				di += Channels
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			di := y * w * Channels
			for x := 0; x < w; x++ {
				out.Pix[di] = src.Pix[si]
				out.Pix[di+1] = src.Pix[si+1]
				out.Pix[di+2] = src.Pix[si+2]
				si += 4
				di += Channels
			}
		}
	default:
		for y := 0; y < h; y++ {
			di := y * w * Channels
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				out.Pix[di] = byte(r >> 8)
				out.Pix[di+1] = byte(g >> 8)
				out.Pix[di+2] = byte(bl >> 8)
				di += Channels
			}
		}
	}
	return out
}

// RGBA expands the buffer into an opaque image.RGBA for encoders that take
// an image.Image.
func (b *Buffer) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	si := 0
	di := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.Pix[di] = b.Pix[si]
			img.Pix[di+1] = b.Pix[si+1]
			img.Pix[di+2] = b.Pix[si+2]
			img.Pix[di+3] = 0xFF
			si += Channels
			di += 4
		}
	}
	return img
}

// ColorAt returns the pixel as a color.RGBA, mainly for tests.
func (b *Buffer) ColorAt(x, y int) color.RGBA {
	r, g, bl := b.At(x, y)
	return color.RGBA{R: r, G: g, B: bl, A: 0xFF}
}
