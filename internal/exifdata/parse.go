package exifdata

import (
	"bytes"
	"errors"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoMetadata is returned when a buffer carries no parseable EXIF data.
// Callers treat this as absence, not failure: the merge chain falls through
// to the next candidate source.
var ErrNoMetadata = errors.New("exifdata: no metadata found")

func init() {
	// Vendor maker-note parsers improve lens and exposure coverage on
	// manufacturer files.
	exif.RegisterParsers(mknote.All...)
}

// ParseBytes extracts a metadata record from an encoded image buffer.
// Both JPEG streams (APP1 EXIF segment) and TIFF-based RAW headers
// (CR2, NEF, DNG, ARW and friends) are supported. Returns ErrNoMetadata
// when the buffer has no EXIF block.
func ParseBytes(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, ErrNoMetadata
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNoMetadata
	}

	r := &Record{}
	r.SetCameraMake(tagString(x, exif.Make))
	r.SetCameraModel(tagString(x, exif.Model))
	r.Software = tagString(x, exif.Software)
	r.ISOSpeed = tagInt(x, exif.ISOSpeedRatings)
	r.Shutter = tagRat(x, exif.ExposureTime)
	r.Aperture = tagRat(x, exif.FNumber)
	r.FocalLength = tagRat(x, exif.FocalLength)
	r.FocalLength35mm = tagInt(x, exif.FocalLengthIn35mmFilm)
	r.Orientation = tagInt(x, exif.Orientation)
	r.Lens = tagString(x, exif.LensModel)
	r.Description = tagString(x, exif.ImageDescription)
	r.Artist = tagString(x, exif.Artist)
	r.RawWidth = tagInt(x, exif.PixelXDimension)
	r.RawHeight = tagInt(x, exif.PixelYDimension)

	// MaxApertureValue is stored in APEX units; convert to an f-number.
	if av := tagRat(x, exif.MaxApertureValue); av > 0 {
		r.MaxAperture = math.Round(math.Pow(2, av/2)*10) / 10
	}

	if dt := tagString(x, exif.DateTimeOriginal); dt != "" {
		r.DateTaken = dt
	} else {
		r.DateTaken = tagString(x, exif.DateTime)
	}

	// A record with neither camera identity nor exposure data is treated
	// as absent so the merge chain can fall through to placeholders.
	if !r.HasCameraInfo() && !r.HasExposureInfo() && r.Orientation == 0 {
		return nil, ErrNoMetadata
	}

	r.Colors = 3
	return r, nil
}

// Orientation extracts only the EXIF orientation tag from a buffer.
// Returns 0 when the buffer has no usable orientation.
func Orientation(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	return tagInt(x, exif.Orientation)
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func tagInt(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func tagRat(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	if tag.Format() == tiff.IntVal {
		v, err := tag.Int(0)
		if err != nil {
			return 0
		}
		return float64(v)
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
