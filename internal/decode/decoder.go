package decode

import (
	"errors"

	"raw-preview/internal/exifdata"
	"raw-preview/internal/pixel"
)

// Decode stage errors. Adapters wrap these sentinels so the orchestrator can
// map failures onto its taxonomy while keeping the codec diagnostic text.
var (
	// ErrOpen means the input could not be opened or recognized at all.
	ErrOpen = errors.New("decode: open failed")
	// ErrUnpack means the RAW sensor data could not be read.
	ErrUnpack = errors.New("decode: sensor unpack failed")
	// ErrProcess means demosaic or pixel decode failed after a successful open.
	ErrProcess = errors.New("decode: processing failed")
	// ErrUnsupported means the decoded intermediate is not an 8-bit
	// 3-channel bitmap.
	ErrUnsupported = errors.New("decode: unsupported intermediate format")
)

// Result is what every adapter produces: the pixel buffer, the source
// dimensions before any downscale, and header metadata when the format
// carries any (nil otherwise).
type Result struct {
	Buffer *pixel.Buffer
	Meta   *exifdata.Record

	// SourceWidth and SourceHeight are the pre-downscale input dimensions.
	SourceWidth  int
	SourceHeight int

	// Orientation is the EXIF orientation still to be applied to Buffer.
	// Adapters that emit upright pixels report 1.
	Orientation int
}

// Decoder is the shared adapter contract.
type Decoder interface {
	Decode(data []byte) (*Result, error)
}
