// Package decode turns encoded image bytes into pipeline pixel buffers.
//
// Three adapters share one contract: a RAW adapter backed by a pluggable
// sensor-decode capability, a JPEG adapter backed by the jpegli codec, and a
// generic raster adapter for PNG/TIFF/BMP/WebP. Each adapter yields an
// interleaved RGB buffer plus whatever header metadata the format carries.
package decode
