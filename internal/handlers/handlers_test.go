package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"raw-preview/internal/cache"
	"raw-preview/internal/decode"
	"raw-preview/internal/pixel"
	"raw-preview/internal/preview"
	"raw-preview/internal/startup"
)

// fakeSensor replaces the libvips RAW decoder in tests so handler tests
// run without native codecs installed.
type fakeSensor struct {
	buf   *pixel.Buffer
	info  *decode.SensorInfo
	err   error
	calls int
}

func (f *fakeSensor) DecodeSensor(data []byte, opts decode.SensorOptions) (*pixel.Buffer, *decode.SensorInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.buf, f.info, nil
}

func newFakeSensor(w, h int) *fakeSensor {
	b := pixel.New(w, h)
	for i := range b.Pix {
		b.Pix[i] = byte(i * 7)
	}
	return &fakeSensor{
		buf: b,
		info: &decode.SensorInfo{
			RawWidth:  w * 2,
			RawHeight: h * 2,
			Colors:    3,
		},
	}
}

// newTestHandlers builds a handler set over a temp media directory with the
// RAW path backed by a fake sensor. The cache is disabled unless withCache
// is set.
func newTestHandlers(t *testing.T, sensor *fakeSensor, withCache bool) (*Handlers, string) {
	t.Helper()

	mediaDir := t.TempDir()
	config := &startup.Config{
		MediaDir: mediaDir,
	}

	var c *cache.Cache
	if withCache {
		cacheDir := t.TempDir()
		previewDir := filepath.Join(cacheDir, "previews")
		if err := os.MkdirAll(previewDir, 0o755); err != nil {
			t.Fatalf("Failed to create preview directory: %v", err)
		}
		var err error
		c, err = cache.New(context.Background(), filepath.Join(cacheDir, "previews.db"), previewDir)
		if err != nil {
			t.Fatalf("Failed to create cache: %v", err)
		}
		t.Cleanup(func() { c.Close() })
	}

	return New(preview.NewWithSensor(sensor), c, config), mediaDir
}

func writeMediaFile(t *testing.T, mediaDir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(mediaDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create media subdirectory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write media file: %v", err)
	}
}

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 11), G: uint8(y * 13), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func decodeJPEGDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Response is not a decodable JPEG: %v", err)
	}
	return cfg.Width, cfg.Height
}
