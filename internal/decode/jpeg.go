package decode

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/jpegli"

	"raw-preview/internal/exifdata"
	"raw-preview/internal/logging"
	"raw-preview/internal/pixel"
)

// JPEGDecoder decompresses JPEG streams to interleaved RGB. The header is
// probed first so dimensions are known without a full decode. When
// HalveOutput is set (the bytes-input preview paths) the decoded buffer is
// reduced to half size per axis.
type JPEGDecoder struct {
	HalveOutput bool
}

// NewJPEGDecoder returns an adapter decoding at full resolution.
func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{}
}

// Decode implements Decoder.
func (d *JPEGDecoder) Decode(data []byte) (*Result, error) {
	cfg, err := jpegli.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg header: %v", ErrProcess, err)
	}

	img, err := jpegli.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg: %v", ErrProcess, err)
	}

	buf := pixel.FromImage(img)
	if d.HalveOutput {
		buf = pixel.Halve(buf)
	}

	// Header metadata comes from the original compressed bytes; absence is
	// not an error and leaves Meta nil for the merge chain to resolve.
	meta, err := exifdata.ParseBytes(data)
	if err != nil {
		logging.Debug("jpeg input carries no EXIF segment")
		meta = nil
	}

	res := &Result{
		Buffer:       buf,
		Meta:         meta,
		SourceWidth:  cfg.Width,
		SourceHeight: cfg.Height,
		Orientation:  1,
	}
	if meta != nil && meta.Orientation > 0 {
		res.Orientation = meta.Orientation
	}
	return res, nil
}
