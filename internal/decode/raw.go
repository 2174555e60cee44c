package decode

import (
	"bytes"
	"errors"
	"fmt"

	"raw-preview/internal/exifdata"
	"raw-preview/internal/logging"
	"raw-preview/internal/pixel"
)

// SensorOptions configures the sensor-decode capability for speed over
// fidelity. These mirror the knobs a demosaic engine exposes; backends apply
// what they support.
type SensorOptions struct {
	// OutputBits is the per-channel depth of the emitted bitmap.
	OutputBits int
	// UseCameraWB applies the white balance recorded by the camera.
	UseCameraWB bool
	// UseCameraMatrix applies the camera color matrix.
	UseCameraMatrix bool
	// NoAutoBright disables automatic brightening.
	NoAutoBright bool
	// HalfSize halves each linear dimension during demosaic (quarter area).
	HalfSize bool
	// PermissiveDNG relaxes illuminant and stage-processing checks on DNG
	// variants and allows size changes.
	PermissiveDNG bool
}

// PreviewSensorOptions is the fixed configuration used by the preview
// pipeline: 8-bit output, camera white balance and color matrix, no
// auto-brightness, quarter-area output, permissive DNG handling.
func PreviewSensorOptions() SensorOptions {
	return SensorOptions{
		OutputBits:      8,
		UseCameraWB:     true,
		UseCameraMatrix: true,
		NoAutoBright:    true,
		HalfSize:        true,
		PermissiveDNG:   true,
	}
}

// SensorInfo carries the sensor-level fields only the demosaic engine knows.
type SensorInfo struct {
	RawWidth    int
	RawHeight   int
	Colors      int
	ColorFilter int
	CamMul      [4]float64
}

// SensorDecoder is the RAW-decode capability: it demosaics a sensor buffer
// into an upright 8-bit RGB bitmap. Implementations must be reentrant; each
// call returns its own error value and touches no shared state.
type SensorDecoder interface {
	DecodeSensor(data []byte, opts SensorOptions) (*pixel.Buffer, *SensorInfo, error)
}

// RawDecoder adapts a SensorDecoder to the common Decoder contract and
// populates the partial metadata record from the RAW header fields.
type RawDecoder struct {
	sensor SensorDecoder
	opts   SensorOptions
}

// NewRawDecoder wires a RAW adapter around the given capability. A nil
// sensor selects the libvips-backed default.
func NewRawDecoder(sensor SensorDecoder) *RawDecoder {
	if sensor == nil {
		sensor = &vipsSensorDecoder{}
	}
	return &RawDecoder{sensor: sensor, opts: PreviewSensorOptions()}
}

// tiffMagic matches the container used by the TIFF-based RAW dialects,
// DNG included.
func tiffMagic(data []byte) bool {
	return len(data) >= 4 &&
		(bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}) ||
			bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}))
}

// Decode implements Decoder.
func (d *RawDecoder) Decode(data []byte) (*Result, error) {
	buf, info, err := d.sensor.DecodeSensor(data, d.opts)
	if err != nil {
		// Backends classify their own open and processing failures;
		// only unclassified errors default to an unpack failure.
		if errors.Is(err, ErrOpen) || errors.Is(err, ErrProcess) || errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		// DNG variants fail unpack in more ways than native dialects;
		// the advisory helps callers triage those reports.
		if tiffMagic(data) {
			return nil, fmt.Errorf("%w (input is a TIFF-container variant, possibly DNG; decoded with relaxed checks): %v", ErrUnpack, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnpack, err)
	}

	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	// Header fields parse straight off the RAW buffer for the TIFF-based
	// dialects. The engine-level sensor fields overlay whatever EXIF lacks.
	meta, parseErr := exifdata.ParseBytes(data)
	if parseErr != nil {
		logging.Debug("raw header carries no parseable EXIF block")
		meta = &exifdata.Record{}
	}
	if info != nil {
		meta.ColorFilter = info.ColorFilter
		if info.Colors > 0 {
			meta.Colors = info.Colors
		}
		if info.CamMul != ([4]float64{}) {
			meta.CamMul = info.CamMul
		}
		if info.RawWidth > 0 {
			meta.RawWidth = info.RawWidth
			meta.RawHeight = info.RawHeight
		}
	}

	res := &Result{
		Buffer: buf,
		Meta:   meta,
		// The sensor backend emits upright pixels; orientation is spent.
		Orientation: 1,
	}
	if info != nil && info.RawWidth > 0 {
		res.SourceWidth = info.RawWidth
		res.SourceHeight = info.RawHeight
	} else {
		res.SourceWidth = buf.Width
		res.SourceHeight = buf.Height
	}
	return res, nil
}
