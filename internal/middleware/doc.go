// Package middleware provides HTTP middleware for the preview service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Response compression (gzip) for JSON payloads
package middleware
