package decode

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"raw-preview/internal/pixel"
	"raw-preview/internal/testutil"
)

// fakeSensor is a stand-in demosaic engine for tests.
type fakeSensor struct {
	buf      *pixel.Buffer
	info     *SensorInfo
	err      error
	lastOpts SensorOptions
	calls    int
}

func (f *fakeSensor) DecodeSensor(data []byte, opts SensorOptions) (*pixel.Buffer, *SensorInfo, error) {
	f.lastOpts = opts
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.buf, f.info, nil
}

func sensorBuffer(w, h int) *pixel.Buffer {
	b := pixel.New(w, h)
	for i := range b.Pix {
		b.Pix[i] = byte(i)
	}
	return b
}

func TestRawDecoderSuccess(t *testing.T) {
	sensor := &fakeSensor{
		buf: sensorBuffer(2000, 1500),
		info: &SensorInfo{
			RawWidth:    4000,
			RawHeight:   3000,
			Colors:      3,
			ColorFilter: 0x94949494,
			CamMul:      [4]float64{2.1, 1.0, 1.6, 1.0},
		},
	}
	data := testutil.CameraTIFF("Canon", "EOS 5D Mark IV", 1)

	res, err := NewRawDecoder(sensor).Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if res.Buffer.Width != 2000 || res.Buffer.Height != 1500 {
		t.Errorf("buffer = %dx%d, want 2000x1500", res.Buffer.Width, res.Buffer.Height)
	}
	if res.SourceWidth != 4000 || res.SourceHeight != 3000 {
		t.Errorf("source = %dx%d, want 4000x3000", res.SourceWidth, res.SourceHeight)
	}
	if res.Orientation != 1 {
		t.Errorf("Orientation = %d, want upright 1", res.Orientation)
	}

	if res.Meta == nil {
		t.Fatal("Meta = nil")
	}
	// Identity comes from the RAW header, sensor fields from the engine.
	if res.Meta.CameraMake != "Canon" || res.Meta.CameraModel != "EOS 5D Mark IV" {
		t.Errorf("camera = %q/%q", res.Meta.CameraMake, res.Meta.CameraModel)
	}
	if res.Meta.ColorFilter != 0x94949494 {
		t.Errorf("ColorFilter = %#x", res.Meta.ColorFilter)
	}
	if res.Meta.CamMul != ([4]float64{2.1, 1.0, 1.6, 1.0}) {
		t.Errorf("CamMul = %v", res.Meta.CamMul)
	}
	if res.Meta.RawWidth != 4000 || res.Meta.RawHeight != 3000 {
		t.Errorf("meta raw dims = %dx%d", res.Meta.RawWidth, res.Meta.RawHeight)
	}
}

func TestRawDecoderOptions(t *testing.T) {
	sensor := &fakeSensor{buf: sensorBuffer(4, 4), info: &SensorInfo{}}
	if _, err := NewRawDecoder(sensor).Decode([]byte{0, 1, 2, 3}); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	opts := sensor.lastOpts
	if opts.OutputBits != 8 {
		t.Errorf("OutputBits = %d, want 8", opts.OutputBits)
	}
	if !opts.UseCameraWB || !opts.UseCameraMatrix || !opts.NoAutoBright {
		t.Errorf("camera processing flags not set: %+v", opts)
	}
	if !opts.HalfSize {
		t.Error("HalfSize not set; RAW previews are quarter-area")
	}
	if !opts.PermissiveDNG {
		t.Error("PermissiveDNG not set")
	}
}

func TestRawDecoderUnpackFailure(t *testing.T) {
	sensor := &fakeSensor{err: fmt.Errorf("bad sensor data")}

	// Non-TIFF input: plain unpack error.
	_, err := NewRawDecoder(sensor).Decode([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	if !errors.Is(err, ErrUnpack) {
		t.Fatalf("Decode() error = %v, want ErrUnpack", err)
	}
	if strings.Contains(err.Error(), "DNG") {
		t.Errorf("non-TIFF input got the DNG advisory: %v", err)
	}

	// TIFF-container input: advisory appended.
	_, err = NewRawDecoder(sensor).Decode(testutil.CameraTIFF("X", "Y", 1))
	if !errors.Is(err, ErrUnpack) {
		t.Fatalf("Decode() error = %v, want ErrUnpack", err)
	}
	if !strings.Contains(err.Error(), "DNG") {
		t.Errorf("TIFF-container input missing the DNG advisory: %v", err)
	}
	if !strings.Contains(err.Error(), "bad sensor data") {
		t.Errorf("engine diagnostic lost: %v", err)
	}
}

func TestRawDecoderPreservesBackendClassification(t *testing.T) {
	tests := []struct {
		name      string
		sensorErr error
		want      error
		notWant   error
	}{
		{
			name:      "Open failure stays an open failure",
			sensorErr: fmt.Errorf("%w: vips load: unknown format", ErrOpen),
			want:      ErrOpen,
			notWant:   ErrUnpack,
		},
		{
			name:      "Processing failure stays a processing failure",
			sensorErr: fmt.Errorf("%w: vips shrink: out of memory", ErrProcess),
			want:      ErrProcess,
			notWant:   ErrUnpack,
		},
		{
			name:      "Unsupported stays unsupported",
			sensorErr: fmt.Errorf("%w: 4-channel output", ErrUnsupported),
			want:      ErrUnsupported,
			notWant:   ErrUnpack,
		},
		{
			name:      "Unclassified failure defaults to unpack",
			sensorErr: fmt.Errorf("bad sensor data"),
			want:      ErrUnpack,
			notWant:   ErrProcess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensor := &fakeSensor{err: tt.sensorErr}
			_, err := NewRawDecoder(sensor).Decode(testutil.CameraTIFF("X", "Y", 1))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
			if errors.Is(err, tt.notWant) {
				t.Errorf("Decode() error = %v, must not match %v", err, tt.notWant)
			}
		})
	}
}

func TestRawDecoderUnsupportedIntermediate(t *testing.T) {
	// A buffer whose length violates the RGB invariant is rejected.
	sensor := &fakeSensor{
		buf:  &pixel.Buffer{Pix: make([]byte, 10), Width: 4, Height: 4},
		info: &SensorInfo{},
	}
	_, err := NewRawDecoder(sensor).Decode([]byte{1, 2, 3})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decode() error = %v, want ErrUnsupported", err)
	}
}

func TestRawDecoderHeaderlessInput(t *testing.T) {
	// Sensor succeeds but the buffer has no parseable EXIF header: the
	// adapter still returns a metadata record built from sensor fields.
	sensor := &fakeSensor{
		buf:  sensorBuffer(8, 6),
		info: &SensorInfo{RawWidth: 16, RawHeight: 12, Colors: 3, CamMul: [4]float64{1.8, 1, 1.4, 1}},
	}
	res, err := NewRawDecoder(sensor).Decode([]byte{9, 9, 9, 9})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if res.Meta == nil {
		t.Fatal("Meta = nil")
	}
	if res.Meta.CameraMake != "" {
		t.Errorf("CameraMake = %q, want empty for headerless input", res.Meta.CameraMake)
	}
	if res.Meta.CamMul != ([4]float64{1.8, 1, 1.4, 1}) {
		t.Errorf("CamMul = %v", res.Meta.CamMul)
	}
}
