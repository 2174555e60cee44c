package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raw-preview/internal/cache"
	"raw-preview/internal/decode"
	"raw-preview/internal/filesystem"
	"raw-preview/internal/handlers"
	"raw-preview/internal/logging"
	"raw-preview/internal/memory"
	"raw-preview/internal/middleware"
	"raw-preview/internal/preview"
	"raw-preview/internal/startup"

	"github.com/gorilla/mux"
)

// pruneAfter is how long an unread cache entry survives before the hourly
// sweep removes it.
const pruneAfter = 30 * 24 * time.Hour

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before decode buffers start allocating
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Label filesystem metrics by data volume
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":    config.MediaDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))

	// Initialize native codecs. A missing libvips degrades the RAW path
	// but standard images still convert.
	if err := decode.InitVips(); err != nil {
		logging.Warn("RAW decode unavailable: %v", err)
	}
	defer decode.ShutdownVips()
	startup.LogCodecInit(decode.IsVipsAvailable())

	// Initialize preview cache
	var previewCache *cache.Cache
	if config.CacheEnabled {
		cacheStart := time.Now()
		previewCache, err = cache.New(context.Background(), config.DatabasePath, config.PreviewDir)
		if err != nil {
			startup.LogFatal("Failed to initialize preview cache: %v", err)
		}
		defer previewCache.Close()
		startup.LogCacheInit(time.Since(cacheStart))

		// Sweep stale entries periodically
		go func() {
			ticker := time.NewTicker(1 * time.Hour)
			for range ticker.C {
				if n, err := previewCache.Prune(context.Background(), time.Now().Add(-pruneAfter)); err != nil {
					logging.Warn("Cache prune failed: %v", err)
				} else if n > 0 {
					logging.Info("Pruned %d stale preview(s) from cache", n)
				}
			}
		}()
	}

	// Initialize the conversion pipeline
	pipeline := preview.New()
	pipeline.RawQuality = config.RawQuality
	pipeline.ImageQuality = config.ImageQuality

	// Initialize handlers
	h := handlers.New(pipeline, previewCache, config)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply compression middleware
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, previewCache)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	// Preview API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/preview", h.GetPreview).Methods("GET")
	api.HandleFunc("/preview", h.PostPreview).Methods("POST")
	api.HandleFunc("/preview/meta", h.GetPreviewMeta).Methods("GET")
	api.HandleFunc("/preview/meta", h.PostPreviewMeta).Methods("POST")

	return r
}

func handleShutdown(srv *http.Server, previewCache *cache.Cache) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if previewCache != nil {
		startup.LogShutdownStep("Compacting preview cache")
		if err := previewCache.Vacuum(); err != nil {
			logging.Warn("Cache vacuum error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Preview cache compacted")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
