package encode

import (
	"bytes"
	"testing"

	"github.com/gen2brain/jpegli"

	"raw-preview/internal/pixel"
)

func testBuffer(w, h int) *pixel.Buffer {
	b := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, byte(x*255/w), byte(y*255/h), 128)
		}
	}
	return b
}

func TestBytes(t *testing.T) {
	buf := testBuffer(64, 48)

	data, err := Bytes(buf, QualityStandard)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("output does not start with a JPEG SOI marker")
	}

	cfg, err := jpegli.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() on output error = %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("output dimensions = %dx%d, want 64x48", cfg.Width, cfg.Height)
	}
}

func TestBytesDeterministic(t *testing.T) {
	buf := testBuffer(32, 32)
	a, err := Bytes(buf, QualityRaw)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	b, err := Bytes(buf, QualityRaw)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding the same buffer twice produced different output")
	}
}

func TestBytesQualityRange(t *testing.T) {
	buf := testBuffer(8, 8)

	tests := []struct {
		name    string
		quality int
		wantErr bool
	}{
		{"Minimum", 1, false},
		{"Maximum", 100, false},
		{"Zero", 0, true},
		{"Negative", -5, true},
		{"Too high", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bytes(buf, tt.quality)
			if (err != nil) != tt.wantErr {
				t.Errorf("Bytes(quality=%d) error = %v, wantErr %v", tt.quality, err, tt.wantErr)
			}
		})
	}
}

func TestBytesInvalidBuffer(t *testing.T) {
	bad := &pixel.Buffer{Pix: make([]byte, 5), Width: 4, Height: 4}
	if _, err := Bytes(bad, 75); err == nil {
		t.Error("Bytes() = nil error for invalid buffer")
	}
}
