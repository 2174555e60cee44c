package exifdata

import (
	"fmt"
	"strings"
)

// maxNameLen bounds the camera make and model strings. Longer values are
// truncated, never overflowed.
const maxNameLen = 64

// Record is the normalized camera-metadata entity returned by the pipeline.
//
// Numeric exposure fields use 0 as their documented "unknown" value. The
// white-balance multipliers are never left at zero; Normalize replaces zero
// entries with the neutral 1.0. OutputWidth and OutputHeight always reflect
// the buffer that was actually encoded, even when EXIF reports different
// original dimensions.
type Record struct {
	CameraMake  string `json:"cameraMake"`
	CameraModel string `json:"cameraModel"`
	Software    string `json:"software,omitempty"`

	ISOSpeed    int     `json:"isoSpeed"`
	Shutter     float64 `json:"shutter"`     // seconds, 0 if unknown
	Aperture    float64 `json:"aperture"`    // f-number
	FocalLength float64 `json:"focalLength"` // millimeters

	// FocalLength35mm is the 35mm-equivalent focal length.
	FocalLength35mm int     `json:"focalLength35mm"`
	MaxAperture     float64 `json:"maxAperture"`

	// RawWidth and RawHeight are the pre-transform source dimensions.
	RawWidth  int `json:"rawWidth"`
	RawHeight int `json:"rawHeight"`

	// OutputWidth and OutputHeight are the dimensions of the encoded preview.
	OutputWidth  int `json:"outputWidth"`
	OutputHeight int `json:"outputHeight"`

	// Colors is the channel count of the encoded buffer.
	Colors int `json:"colors"`

	// ColorFilter is the sensor CFA pattern id. RAW-only, 0 otherwise.
	ColorFilter int `json:"colorFilter"`

	// CamMul holds the camera white-balance multipliers. Neutral is {1,1,1,1}.
	CamMul [4]float64 `json:"camMul"`

	// Orientation is the EXIF orientation tag (1-8, 0 when absent).
	Orientation int `json:"orientation,omitempty"`

	DateTaken   string `json:"dateTaken,omitempty"`
	Lens        string `json:"lens,omitempty"`
	Description string `json:"description,omitempty"`
	Artist      string `json:"artist,omitempty"`
}

// ForJPEG returns the placeholder record for a JPEG input that carries no
// EXIF segment.
func ForJPEG() *Record {
	return &Record{
		CameraMake:  "Unknown",
		CameraModel: "JPEG Image",
		Colors:      3,
		CamMul:      [4]float64{1, 1, 1, 1},
	}
}

// ForPNG returns the placeholder record for a PNG input.
func ForPNG() *Record {
	return &Record{
		CameraMake:  "Unknown",
		CameraModel: "PNG Image",
		Colors:      3,
		CamMul:      [4]float64{1, 1, 1, 1},
	}
}

// ForRaster returns the placeholder record for a generic raster input that is
// neither JPEG nor PNG.
func ForRaster() *Record {
	return &Record{
		CameraMake:  "Unknown",
		CameraModel: "Image File",
		Colors:      3,
		CamMul:      [4]float64{1, 1, 1, 1},
	}
}

// SetCameraMake stores the make, truncated to the bounded length.
func (r *Record) SetCameraMake(s string) {
	r.CameraMake = truncate(s)
}

// SetCameraModel stores the model, truncated to the bounded length.
func (r *Record) SetCameraModel(s string) {
	r.CameraModel = truncate(s)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxNameLen {
		return s[:maxNameLen]
	}
	return s
}

// Normalize replaces unset values with their neutral defaults: zero
// white-balance multipliers become 1.0 and a zero channel count becomes 3.
func (r *Record) Normalize() {
	for i := range r.CamMul {
		if r.CamMul[i] == 0 {
			r.CamMul[i] = 1
		}
	}
	if r.Colors == 0 {
		r.Colors = 3
	}
}

// HasCameraInfo reports whether the record carries real camera identity
// rather than a placeholder.
func (r *Record) HasCameraInfo() bool {
	return r.CameraMake != "" && r.CameraModel != "" &&
		r.CameraMake != "Unknown" &&
		!strings.Contains(r.CameraModel, "Image") &&
		!strings.Contains(r.CameraModel, "File")
}

// HasExposureInfo reports whether any exposure parameter is known.
func (r *Record) HasExposureInfo() bool {
	return r.ISOSpeed > 0 || r.Aperture > 0 || r.Shutter > 0
}

// FormattedShutter renders the shutter speed, e.g. "1/250s" or "2.0s".
func (r *Record) FormattedShutter() string {
	if r.Shutter <= 0 {
		return "Unknown"
	}
	if r.Shutter >= 1 {
		return fmt.Sprintf("%.1fs", r.Shutter)
	}
	return fmt.Sprintf("1/%.0fs", 1/r.Shutter)
}

// FormattedAperture renders the aperture, e.g. "f/2.8".
func (r *Record) FormattedAperture() string {
	if r.Aperture <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("f/%.1f", r.Aperture)
}

// FormattedDimensions renders output and, when known, source dimensions.
func (r *Record) FormattedDimensions() string {
	if r.RawWidth > 0 && r.RawHeight > 0 {
		return fmt.Sprintf("%dx%d (source: %dx%d)",
			r.OutputWidth, r.OutputHeight, r.RawWidth, r.RawHeight)
	}
	if r.OutputWidth > 0 && r.OutputHeight > 0 {
		return fmt.Sprintf("%dx%d", r.OutputWidth, r.OutputHeight)
	}
	return "Unknown"
}

// Merge picks the winning metadata source. Candidates are evaluated in
// precedence order and the first non-nil one wins outright; there is no
// field-level mixing between sources. A nil result from every candidate
// yields an empty record for the caller to patch and normalize.
func Merge(candidates ...*Record) *Record {
	for _, c := range candidates {
		if c != nil {
			out := *c
			return &out
		}
	}
	return &Record{}
}
