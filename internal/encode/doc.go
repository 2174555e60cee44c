// Package encode compresses pipeline pixel buffers to JPEG. All paths encode
// with 4:4:4 chroma so small previews keep full color resolution; quality is
// a per-path policy owned by the caller.
package encode
