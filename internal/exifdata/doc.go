// Package exifdata defines the normalized camera-metadata record produced by
// the preview pipeline and the logic that fills it: parsing EXIF segments
// from JPEG and TIFF-based RAW buffers, merging candidate sources by
// precedence, and normalizing unknown values to documented neutral defaults.
package exifdata
