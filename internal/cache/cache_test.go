package cache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"raw-preview/internal/exifdata"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	previewDir := filepath.Join(dir, "previews")
	if err := os.MkdirAll(previewDir, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := New(context.Background(), filepath.Join(dir, "previews.db"), previewDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return c
}

func testMeta() *exifdata.Record {
	rec := &exifdata.Record{
		ISOSpeed:     400,
		Shutter:      0.004,
		Aperture:     2.8,
		OutputWidth:  120,
		OutputHeight: 80,
		Colors:       3,
	}
	rec.SetCameraMake("Canon")
	rec.SetCameraModel("EOS R5")
	rec.Normalize()
	return rec
}

func TestCacheStoreAndLookup(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	jpg := []byte("jpeg-bytes-stand-in")

	if err := c.Store(ctx, "/media/shot.cr2", modTime, 1024, jpg, testMeta(), 75); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entry, got, ok := c.Lookup(ctx, "/media/shot.cr2", modTime, 1024)
	if !ok {
		t.Fatal("Lookup() miss, want hit")
	}
	if !bytes.Equal(got, jpg) {
		t.Error("Lookup() returned different bytes")
	}
	if entry.Quality != 75 {
		t.Errorf("Quality = %d, want 75", entry.Quality)
	}
	if entry.Width != 120 || entry.Height != 80 {
		t.Errorf("dims = %dx%d, want 120x80", entry.Width, entry.Height)
	}
	if entry.Meta == nil {
		t.Fatal("Meta = nil, want round-tripped record")
	}
	if entry.Meta.CameraMake != "Canon" || entry.Meta.CameraModel != "EOS R5" {
		t.Errorf("camera = %q/%q", entry.Meta.CameraMake, entry.Meta.CameraModel)
	}
	if entry.Meta.ISOSpeed != 400 {
		t.Errorf("ISOSpeed = %d, want 400", entry.Meta.ISOSpeed)
	}
}

func TestCacheLookupMissOnUnknownPath(t *testing.T) {
	c := newTestCache(t)

	_, _, ok := c.Lookup(context.Background(), "/media/never-stored.nef", time.Now(), 10)
	if ok {
		t.Error("Lookup() hit for unknown path")
	}
}

func TestCacheLookupStaleOnSourceChange(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	if err := c.Store(ctx, "/media/a.arw", modTime, 2048, []byte("preview"), nil, 75); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	t.Run("mod time changed", func(t *testing.T) {
		if _, _, ok := c.Lookup(ctx, "/media/a.arw", modTime.Add(time.Minute), 2048); ok {
			t.Error("Lookup() hit for changed mod time")
		}
	})

	t.Run("size changed", func(t *testing.T) {
		if _, _, ok := c.Lookup(ctx, "/media/a.arw", modTime, 4096); ok {
			t.Error("Lookup() hit for changed size")
		}
	})

	t.Run("unchanged still hits", func(t *testing.T) {
		if _, _, ok := c.Lookup(ctx, "/media/a.arw", modTime, 2048); !ok {
			t.Error("Lookup() miss for unchanged source")
		}
	})
}

func TestCacheStoreOverwrites(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	if err := c.Store(ctx, "/media/b.dng", modTime, 100, []byte("old"), nil, 75); err != nil {
		t.Fatalf("first Store() error = %v", err)
	}

	newMod := modTime.Add(time.Hour)
	if err := c.Store(ctx, "/media/b.dng", newMod, 200, []byte("new"), nil, 75); err != nil {
		t.Fatalf("second Store() error = %v", err)
	}

	_, got, ok := c.Lookup(ctx, "/media/b.dng", newMod, 200)
	if !ok {
		t.Fatal("Lookup() miss after overwrite")
	}
	if string(got) != "new" {
		t.Errorf("bytes = %q, want new", got)
	}

	n, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1 after overwrite", n)
	}
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	if err := c.Store(ctx, "/media/c.raf", modTime, 300, []byte("preview"), nil, 75); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	previewPath := c.PreviewPath("/media/c.raf")

	if err := c.Delete(ctx, "/media/c.raf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, _, ok := c.Lookup(ctx, "/media/c.raf", modTime, 300); ok {
		t.Error("Lookup() hit after delete")
	}
	if _, err := os.Stat(previewPath); !os.IsNotExist(err) {
		t.Error("preview file survived delete")
	}

	// Deleting a missing entry is not an error
	if err := c.Delete(ctx, "/media/c.raf"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestCachePrune(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	for _, p := range []string{"/media/1.cr2", "/media/2.cr2"} {
		if err := c.Store(ctx, p, modTime, 100, []byte("preview"), nil, 75); err != nil {
			t.Fatalf("Store(%s) error = %v", p, err)
		}
	}

	// Cutoff in the past drops nothing
	dropped, err := c.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if dropped != 0 {
		t.Errorf("Prune(past) dropped %d, want 0", dropped)
	}

	// Cutoff in the future drops everything
	dropped, err = c.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if dropped != 2 {
		t.Errorf("Prune(future) dropped %d, want 2", dropped)
	}

	n, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d after prune, want 0", n)
	}
}

func TestCachePreviewPathIsStable(t *testing.T) {
	c := newTestCache(t)

	a := c.PreviewPath("/media/photo.nef")
	b := c.PreviewPath("/media/photo.nef")
	if a != b {
		t.Errorf("PreviewPath not stable: %q vs %q", a, b)
	}
	if c.PreviewPath("/media/other.nef") == a {
		t.Error("distinct sources mapped to the same preview path")
	}
	if filepath.Ext(a) != ".jpg" {
		t.Errorf("preview path %q does not end in .jpg", a)
	}
}

func TestCacheVacuum(t *testing.T) {
	c := newTestCache(t)
	if err := c.Vacuum(); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
}

// Lookup hits bump last_access, which is a write. Hammer hits and stores
// together so the race detector sees the lock ordering.
func TestCacheConcurrentLookupAndStore(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	modTime := time.Now().Truncate(time.Second)
	paths := make([]string, 4)
	for i := range paths {
		paths[i] = fmt.Sprintf("/media/shot-%d.cr2", i)
		if err := c.Store(ctx, paths[i], modTime, 1024, []byte("jpeg-bytes"), nil, 75); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := paths[i%len(paths)]
			for j := 0; j < 20; j++ {
				if i%2 == 0 {
					if _, _, ok := c.Lookup(ctx, path, modTime, 1024); !ok {
						t.Errorf("Lookup(%s) miss, want hit", path)
						return
					}
				} else {
					if err := c.Store(ctx, path, modTime, 1024, []byte("jpeg-bytes"), nil, 75); err != nil {
						t.Errorf("Store(%s) error = %v", path, err)
						return
					}
				}
			}
		}(i)
	}
	wg.Wait()
}
