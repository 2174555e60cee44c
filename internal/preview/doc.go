// Package preview is the orchestration core: it sniffs an input, dispatches
// to the right decode adapter, applies orientation, re-encodes to JPEG and
// merges camera metadata from every available source. The public entry
// points cover file-to-file, bytes-to-file and bytes-to-memory, for both
// standard images and RAW sensor files.
//
// Every call is synchronous and self-contained; errors are per-call values
// and no global state is shared between invocations, so entry points are
// safe to call concurrently.
package preview
