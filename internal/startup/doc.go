// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Path to the source image directory (default: /media)
//   - CACHE_DIR: Path to cache directory for generated previews (default: /cache)
//   - DATABASE_DIR: Path to the cache index directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - RAW_QUALITY: JPEG quality for previews of RAW inputs (default: 75)
//   - IMAGE_QUALITY: JPEG quality for previews of standard images (default: 90)
//   - PREVIEW_WORKERS: Override for batch worker pool size
//   - METRICS_ENABLED: Expose Prometheus metrics (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, enables the preview cache if writable
//   - Media directory: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogCacheInit]: Cache index initialization timing
//   - [LogCodecInit]: Image codec availability
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
