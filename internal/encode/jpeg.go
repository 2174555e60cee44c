package encode

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/jpegli"

	"raw-preview/internal/pixel"
)

// Quality policy per pipeline path. RAW-derived previews favor small files;
// standard-image re-encodes favor fidelity.
const (
	QualityRaw      = 75
	QualityStandard = 90
)

// Bytes compresses an RGB buffer to JPEG at the given quality (1-100).
func Bytes(b *pixel.Buffer, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("encode: quality %d out of range 1-100", quality)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var buf bytes.Buffer
	err := jpegli.Encode(&buf, b.RGBA(), &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	})
	if err != nil {
		return nil, fmt.Errorf("encode: jpeg compression failed: %w", err)
	}
	return buf.Bytes(), nil
}
