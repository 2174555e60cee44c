// Package handlers implements the HTTP API of the preview service.
//
// Endpoints:
//
//	GET  /api/preview?path=...       JPEG preview for a file under the media root
//	GET  /api/preview/meta?path=...  metadata record for the same preview
//	POST /api/preview[?raw=true]     preview for an uploaded image buffer
//	POST /api/preview/meta[?raw=true] metadata for an uploaded image buffer
//	GET  /api/version                build information
//	GET  /health, /healthz, /readyz  health probes
//
// GET responses for unchanged sources are served from the preview cache.
package handlers
