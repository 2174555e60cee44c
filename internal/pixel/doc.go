// Package pixel holds the interleaved RGB buffer that flows between pipeline
// stages, plus the pure transforms applied to it: EXIF-orientation rotation
// and nearest-neighbor halving. Buffers are owned by exactly one stage at a
// time; transforms consume their input and return a new buffer.
package pixel
