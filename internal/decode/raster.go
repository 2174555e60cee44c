package decode

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"raw-preview/internal/logging"
	"raw-preview/internal/pixel"
)

// RasterDecoder handles the generic raster formats (PNG, TIFF, BMP, WebP,
// GIF) by decoding to forced 3-channel RGB regardless of the source layout.
// Non-JPEG rasters carry no EXIF, so Meta is always nil. When HalveOutput is
// set the buffer is reduced to half size per axis with nearest-neighbor
// sampling.
type RasterDecoder struct {
	HalveOutput bool
}

// NewRasterDecoder returns an adapter decoding at full resolution.
func NewRasterDecoder() *RasterDecoder {
	return &RasterDecoder{}
}

// Decode implements Decoder.
func (d *RasterDecoder) Decode(data []byte) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// imaging registers a couple of formats the stdlib chain misses.
		img, fallbackErr := imaging.Decode(bytes.NewReader(data))
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w: raster: %v", ErrProcess, err)
		}
		logging.Debug("raster decoded via imaging fallback")
		return d.finish(img, "unknown"), nil
	}
	logging.Debug("raster decoded as %s", format)
	return d.finish(img, format), nil
}

func (d *RasterDecoder) finish(img image.Image, format string) *Result {
	bounds := img.Bounds()
	buf := pixel.FromImage(img)
	if d.HalveOutput {
		buf = pixel.Halve(buf)
	}
	return &Result{
		Buffer:       buf,
		Meta:         nil,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Orientation:  1,
	}
}
