// Package sniff classifies image inputs so the pipeline can pick the right
// decode path. Classification is done two ways: by magic bytes for in-memory
// buffers, and by file extension for path-based routing across the supported
// RAW dialects and raster formats.
package sniff
