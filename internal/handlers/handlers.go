package handlers

import (
	"time"

	"raw-preview/internal/cache"
	"raw-preview/internal/preview"
	"raw-preview/internal/startup"
)

// maxUploadBytes bounds POST bodies. RAW files from current sensors top out
// well below this.
const maxUploadBytes = 512 << 20

type Handlers struct {
	pipeline  *preview.Pipeline
	cache     *cache.Cache
	mediaDir  string
	startTime time.Time
}

// New wires the handler set. cache may be nil when the preview cache
// directory is unavailable; GET requests then decode on every call.
func New(pipeline *preview.Pipeline, c *cache.Cache, config *startup.Config) *Handlers {
	return &Handlers{
		pipeline:  pipeline,
		cache:     c,
		mediaDir:  config.MediaDir,
		startTime: time.Now(),
	}
}
