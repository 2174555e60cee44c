package sniff

import (
	"path/filepath"
	"strings"
)

// Format is the result of magic-byte classification of an input buffer.
type Format string

const (
	// FormatJPEG is a JPEG stream (leading FF D8).
	FormatJPEG Format = "jpeg"
	// FormatPNG is a PNG stream (89 50 4E 47 signature).
	FormatPNG Format = "png"
	// FormatRawOrUnknown is anything else: every RAW dialect, TIFF, BMP,
	// WebP and malformed input. The caller's entry point disambiguates.
	FormatRawOrUnknown Format = "raw-or-unknown"
)

var pngSignature = [...]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Classify identifies the format of a buffer from its leading bytes.
// Empty and short inputs classify deterministically as FormatRawOrUnknown;
// downstream stages surface the actual error.
func Classify(data []byte) Format {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return FormatJPEG
	}
	if len(data) >= 4 &&
		data[0] == pngSignature[0] && data[1] == pngSignature[1] &&
		data[2] == pngSignature[2] && data[3] == pngSignature[3] {
		return FormatPNG
	}
	return FormatRawOrUnknown
}

// rawExtensions covers camera sensor formats handled by the RAW decode path.
var rawExtensions = map[string]bool{
	".raw": true,
	".cr2": true, ".cr3": true, // Canon
	".nef": true,                             // Nikon
	".dng": true,                             // Adobe Digital Negative
	".arw": true, ".sr2": true, ".srf": true, // Sony
	".raf": true,               // Fujifilm
	".rw2": true,               // Panasonic
	".orf": true,               // Olympus
	".pef": true, ".ptx": true, // Pentax
	".srw": true,               // Samsung
	".3fr": true, ".fff": true, // Hasselblad
	".mef": true,               // Mamiya
	".mrw": true, ".mdc": true, // Minolta
	".x3f": true,               // Sigma
	".dcr": true, ".kdc": true, // Kodak
	".iiq": true, ".cap": true, // PhaseOne
	".rwl": true, // Leica
	".gpr": true, // GoPro
	".erf": true, // Epson
	".mos": true, // Leaf
	".r3d": true, // RED
}

// imageExtensions covers the standard raster formats handled by the
// JPEG and generic decode paths.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true,
	".png":  true,
	".tiff": true, ".tif": true,
	".bmp":  true,
	".webp": true,
}

// IsRawPath reports whether the path names a supported RAW file.
func IsRawPath(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsImagePath reports whether the path names a supported raster image file.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedPath reports whether the path can be processed at all.
func IsSupportedPath(path string) bool {
	return IsRawPath(path) || IsImagePath(path)
}

// PathKind describes how a path-based input will be routed.
type PathKind string

const (
	// PathKindRaw routes through the RAW decode adapter.
	PathKindRaw PathKind = "raw"
	// PathKindImage routes through the standard-image decode adapters.
	PathKindImage PathKind = "image"
	// PathKindUnsupported cannot be processed.
	PathKindUnsupported PathKind = "unsupported"
)

// KindForPath returns the routing category for a file path.
func KindForPath(path string) PathKind {
	switch {
	case IsRawPath(path):
		return PathKindRaw
	case IsImagePath(path):
		return PathKindImage
	default:
		return PathKindUnsupported
	}
}
