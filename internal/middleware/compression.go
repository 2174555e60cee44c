package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
//
// The service produces two body shapes: JPEG previews, which are already
// compressed and must stream through untouched with their Content-Length
// intact, and JSON (metadata records, health, errors), which compresses
// well. The type allowlist is what keeps previews out of the gzip path.
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression
	// is applied. Health and error bodies stay below it.
	MinSize int
	// Level is the gzip compression level
	Level int
	// CompressibleTypes lists the content types that go through gzip;
	// everything else passes through as soon as the type is known.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns the service defaults: JSON and plain
// text only. image/jpeg is deliberately absent.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// gzipWriterPool reduces allocations by reusing gzip writers
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter defers the compress-or-passthrough decision until the
// first write. Handlers set Content-Type before writing, so a preview body
// is recognized immediately and streamed without buffering; compressible
// bodies buffer up to MinSize before the gzip path commits.
type gzipResponseWriter struct {
	http.ResponseWriter
	config     CompressionConfig
	gzipWriter *gzip.Writer
	buffer     []byte
	statusCode int
	decided    bool
	compress   bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code; the header goes out once the
// compression decision is made.
func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.decided {
		return
	}
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.compress {
			return g.gzipWriter.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	// Non-compressible type: pass through immediately. Preview bodies are
	// large single writes and never belong in the buffer.
	if !g.compressibleType() {
		g.commit(false)
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) >= g.config.MinSize {
		g.commit(true)
	}
	return len(data), nil
}

// compressibleType checks the declared Content-Type against the allowlist,
// ignoring charset and other parameters.
func (g *gzipResponseWriter) compressibleType() bool {
	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, compressible := range g.config.CompressibleTypes {
		if mediaType == compressible {
			return true
		}
	}
	return false
}

// commit locks in the decision, sends the header, and drains the buffer.
func (g *gzipResponseWriter) commit(compress bool) {
	if g.decided {
		return
	}
	g.decided = true
	g.compress = compress

	if compress {
		// Content-Length no longer matches the compressed body.
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")

		g.gzipWriter = gzipWriterPool.Get().(*gzip.Writer)
		g.gzipWriter.Reset(g.ResponseWriter)

		g.ResponseWriter.WriteHeader(g.statusCode)
		g.gzipWriter.Write(g.buffer)
	} else {
		g.ResponseWriter.WriteHeader(g.statusCode)
		if len(g.buffer) > 0 {
			g.ResponseWriter.Write(g.buffer)
		}
	}

	g.buffer = nil
}

// Close flushes an undecided writer (a compressible body that never reached
// MinSize goes out uncompressed) and returns the gzip writer to the pool.
func (g *gzipResponseWriter) Close() error {
	if !g.decided {
		g.commit(false)
	}

	if g.gzipWriter != nil {
		err := g.gzipWriter.Close()
		gzipWriterPool.Put(g.gzipWriter)
		g.gzipWriter = nil
		return err
	}
	return nil
}

// Flush implements http.Flusher
func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		g.commit(g.compressibleType() && len(g.buffer) >= g.config.MinSize)
	}
	if g.gzipWriter != nil {
		g.gzipWriter.Flush()
	}
	if flusher, ok := g.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Compression returns a middleware that gzips the JSON surfaces of the
// service when the client accepts it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}
