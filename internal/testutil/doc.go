// Package testutil builds small image fixtures for tests: minimal TIFF/EXIF
// payloads with chosen tags, and JPEG streams with an injected APP1 segment.
// Test-only; nothing here ships in the pipeline.
package testutil
