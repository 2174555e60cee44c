// Package main provides the rawpreview batch conversion tool.
//
// rawpreview scans a directory for RAW camera files and standard images,
// converts each one to a JPEG preview, and writes the results into an
// output directory that mirrors the input tree. Conversions run on a
// worker pool sized to the machine's CPU count.
//
// # Usage
//
//	rawpreview -input /photos -output /previews -recursive
//
// Flags:
//
//   - -input: directory to scan (default ".")
//   - -output: directory for JPEG previews (default "./previews")
//   - -recursive: descend into subdirectories
//   - -raw-only: skip standard images, convert RAW files only
//   - -workers: concurrent conversions (default: one per CPU)
//   - -raw-quality: JPEG quality for RAW previews (default 75)
//   - -image-quality: JPEG quality for standard images (default 90)
//
// RAW decoding requires libvips with a RAW loader. Without it the tool
// still converts standard images and reports RAW files as failures.
//
// # Exit Codes
//
//   - 0: all files converted (or nothing to do)
//   - 1: at least one conversion failed, or setup failed
package main
