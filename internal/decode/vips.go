package decode

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/gen2brain/jpegli"

	"raw-preview/internal/logging"
	"raw-preview/internal/pixel"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes libvips. Call once at startup; it is idempotent.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips chatter through our leveled logger so LOG_LEVEL governs it.
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level >= vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	// Conservative memory settings: the pipeline handles one image per call.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources. libvips cannot be restarted in
// the same process afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// vipsSensorDecoder is the default SensorDecoder, backed by libvips. The
// demosaic runs inside vips loaders; output is exported upright (vips
// thumbnailing applies the orientation tag) and re-read through the JPEG
// codec into a pipeline buffer.
type vipsSensorDecoder struct{}

func (v *vipsSensorDecoder) DecodeSensor(data []byte, opts SensorOptions) (*pixel.Buffer, *SensorInfo, error) {
	if !IsVipsAvailable() {
		return nil, nil, fmt.Errorf("libvips not initialized")
	}

	ref, err := vips.LoadImageFromBuffer(data, vips.NewImportParams())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: vips load: %v", ErrOpen, err)
	}
	defer ref.Close()

	rawW, rawH := ref.Width(), ref.Height()
	outW, outH := rawW, rawH
	if opts.HalfSize {
		outW, outH = rawW/2, rawH/2
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
	}

	if err := ref.Thumbnail(outW, outH, vips.InterestingNone); err != nil {
		return nil, nil, fmt.Errorf("%w: vips shrink: %v", ErrProcess, err)
	}

	// High-quality intermediate; the path-specific preview quality is
	// applied by the final encode stage.
	jpegBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:       95,
		StripMetadata: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: vips export: %v", ErrProcess, err)
	}

	img, err := jpegli.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: intermediate decode: %v", ErrProcess, err)
	}

	buf := pixel.FromImage(img)
	info := &SensorInfo{
		RawWidth:  rawW,
		RawHeight: rawH,
		Colors:    pixel.Channels,
	}
	return buf, info, nil
}
