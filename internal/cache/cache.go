package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"raw-preview/internal/exifdata"
	"raw-preview/internal/logging"
	"raw-preview/internal/metrics"
)

// Default timeout for index operations
const defaultTimeout = 5 * time.Second

// Entry is one cached preview.
type Entry struct {
	SourcePath    string
	SourceModTime time.Time
	SourceSize    int64
	PreviewPath   string
	PreviewSize   int64
	Width         int
	Height        int
	Quality       int
	Meta          *exifdata.Record
	CreatedAt     time.Time
}

// Cache manages the preview files and their SQLite index.
type Cache struct {
	db         *sql.DB
	dbPath     string
	previewDir string
	mu         sync.RWMutex
}

// New opens the index at dbPath and stores preview files under previewDir.
// The parent directory of dbPath must already exist and be writable; use
// startup.LoadConfig() for directory validation before calling this.
func New(ctx context.Context, dbPath, previewDir string) (*Cache, error) {
	logging.Info("Cache index path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache index: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close cache index after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to cache index: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &Cache{
		db:         db,
		dbPath:     dbPath,
		previewDir: previewDir,
	}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close cache index after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	c.refreshEntriesGauge(ctx)

	logging.Info("Cache index initialized at %s", dbPath)
	return c, nil
}

func (c *Cache) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS previews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_path TEXT NOT NULL UNIQUE,
		source_mod_time INTEGER NOT NULL,
		source_size INTEGER NOT NULL,
		preview_path TEXT NOT NULL,
		preview_size INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		quality INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		last_access INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_previews_source_path ON previews(source_path);
	CREATE INDEX IF NOT EXISTS idx_previews_last_access ON previews(last_access);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the index connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// PreviewPath returns the cache file path for a source path. Names are
// content-addressed by source path so arbitrary paths stay filesystem-safe.
func (c *Cache) PreviewPath(sourcePath string) string {
	sum := sha256.Sum256([]byte(sourcePath))
	return filepath.Join(c.previewDir, hex.EncodeToString(sum[:16])+".jpg")
}

// Lookup returns the cached preview for sourcePath if the recorded source
// size and modification time still match. A stale or missing row is a miss.
func (c *Cache) Lookup(ctx context.Context, sourcePath string, modTime time.Time, size int64) (*Entry, []byte, bool) {
	entry, jpg, ok := c.lookupLocked(ctx, sourcePath, modTime, size)
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, nil, false
	}

	// The last_access bump is a write; it runs after the read lock is
	// released so it can take the write lock like every other mutation.
	c.touch(sourcePath)
	metrics.CacheHitsTotal.Inc()
	return entry, jpg, true
}

func (c *Cache) lookupLocked(ctx context.Context, sourcePath string, modTime time.Time, size int64) (*Entry, []byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT source_mod_time, source_size, preview_path, preview_size, width, height, quality, metadata, created_at
	FROM previews WHERE source_path = ?
	`

	var (
		entry     Entry
		storedMod int64
		createdAt int64
		metaJSON  sql.NullString
	)
	entry.SourcePath = sourcePath

	err := c.db.QueryRowContext(ctx, query, sourcePath).Scan(
		&storedMod, &entry.SourceSize, &entry.PreviewPath, &entry.PreviewSize,
		&entry.Width, &entry.Height, &entry.Quality, &metaJSON, &createdAt,
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Warn("cache lookup for %s failed: %v", sourcePath, err)
		}
		return nil, nil, false
	}

	entry.SourceModTime = time.Unix(storedMod, 0)
	entry.CreatedAt = time.Unix(createdAt, 0)

	if storedMod != modTime.Unix() || entry.SourceSize != size {
		logging.Debug("cache entry for %s is stale", sourcePath)
		return nil, nil, false
	}

	jpg, err := os.ReadFile(entry.PreviewPath)
	if err != nil {
		logging.Warn("cache file for %s unreadable: %v", sourcePath, err)
		return nil, nil, false
	}

	if metaJSON.Valid && metaJSON.String != "" {
		var rec exifdata.Record
		if err := json.Unmarshal([]byte(metaJSON.String), &rec); err == nil {
			entry.Meta = &rec
		}
	}

	return &entry, jpg, true
}

// Store writes the preview file and upserts its index row.
func (c *Cache) Store(ctx context.Context, sourcePath string, modTime time.Time, size int64, jpg []byte, meta *exifdata.Record, quality int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	previewPath := c.PreviewPath(sourcePath)
	if err := os.WriteFile(previewPath, jpg, 0o644); err != nil {
		return fmt.Errorf("failed to write preview file: %w", err)
	}

	var metaJSON []byte
	var width, height int
	if meta != nil {
		var err error
		metaJSON, err = json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		width = meta.OutputWidth
		height = meta.OutputHeight
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO previews (source_path, source_mod_time, source_size, preview_path, preview_size, width, height, quality, metadata, created_at, last_access)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'), strftime('%s', 'now'))
	ON CONFLICT(source_path) DO UPDATE SET
		source_mod_time = excluded.source_mod_time,
		source_size = excluded.source_size,
		preview_path = excluded.preview_path,
		preview_size = excluded.preview_size,
		width = excluded.width,
		height = excluded.height,
		quality = excluded.quality,
		metadata = excluded.metadata,
		created_at = strftime('%s', 'now'),
		last_access = strftime('%s', 'now')
	`

	_, err := c.db.ExecContext(ctx, query,
		sourcePath, modTime.Unix(), size, previewPath, int64(len(jpg)),
		width, height, quality, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to index preview: %w", err)
	}

	c.refreshEntriesGauge(ctx)
	return nil
}

// Delete drops the entry and its preview file for sourcePath.
func (c *Cache) Delete(ctx context.Context, sourcePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var previewPath string
	err := c.db.QueryRowContext(ctx, "SELECT preview_path FROM previews WHERE source_path = ?", sourcePath).Scan(&previewPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, "DELETE FROM previews WHERE source_path = ?", sourcePath); err != nil {
		return err
	}
	if err := os.Remove(previewPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove cache file %s: %v", previewPath, err)
	}

	c.refreshEntriesGauge(ctx)
	return nil
}

// Prune removes entries not accessed since the cutoff, returning the number
// of rows dropped. Orphaned preview files are removed alongside their rows.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, "SELECT preview_path FROM previews WHERE last_access < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		stale = append(stale, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	result, err := c.db.ExecContext(ctx, "DELETE FROM previews WHERE last_access < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}

	for _, p := range stale {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove stale cache file %s: %v", p, err)
		}
	}

	dropped, err := result.RowsAffected()
	if err == nil && dropped > 0 {
		logging.Info("pruned %d stale cache entries", dropped)
	}

	c.refreshEntriesGauge(ctx)
	return dropped, err
}

// Count returns the number of indexed previews.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM previews").Scan(&n)
	return n, err
}

// Vacuum optimizes the index.
func (c *Cache) Vacuum() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := c.db.ExecContext(ctx, "VACUUM")
	return err
}

// touch bumps last_access without invalidating anything. It is a write,
// so it takes the write lock like Store and Prune do.
func (c *Cache) touch(sourcePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if _, err := c.db.ExecContext(ctx, "UPDATE previews SET last_access = strftime('%s', 'now') WHERE source_path = ?", sourcePath); err != nil {
		logging.Debug("failed to touch cache entry %s: %v", sourcePath, err)
	}
}

func (c *Cache) refreshEntriesGauge(ctx context.Context) {
	var n int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM previews").Scan(&n); err == nil {
		metrics.CacheEntries.Set(float64(n))
	}
}
