package preview

import (
	"errors"
	"os"
	"time"

	"raw-preview/internal/decode"
	"raw-preview/internal/encode"
	"raw-preview/internal/exifdata"
	"raw-preview/internal/logging"
	"raw-preview/internal/metrics"
	"raw-preview/internal/pixel"
	"raw-preview/internal/sniff"
)

// Pipeline runs the four fixed stages: sniff, decode, transform, encode, and
// then assembles the metadata record for the produced preview. It holds no
// per-call state; a single Pipeline is safe for concurrent use.
type Pipeline struct {
	sensor decode.SensorDecoder

	// RawQuality and ImageQuality override the default encode qualities
	// when set to a value in 1..100. Zero keeps the defaults.
	RawQuality   int
	ImageQuality int
}

// New returns a pipeline using the default libvips-backed sensor decoder
// for RAW inputs.
func New() *Pipeline {
	return &Pipeline{}
}

// NewWithSensor returns a pipeline with an injected RAW-decode capability.
// A nil sensor behaves like New.
func NewWithSensor(sensor decode.SensorDecoder) *Pipeline {
	return &Pipeline{sensor: sensor}
}

// Default is the shared pipeline behind the package-level entry points.
var Default = New()

// output bundles what a successful run produces before any file write.
type output struct {
	jpeg   []byte
	meta   *exifdata.Record
	format sniff.Format
}

// run executes the pipeline on an in-memory input. forceRaw selects the RAW
// adapter regardless of magic bytes; halve reduces standard-image output to
// half size per axis (RAW inputs are always quarter-area via the sensor
// decoder itself).
func (p *Pipeline) run(data []byte, forceRaw, halve bool) (*output, *Error) {
	start := time.Now()
	out, perr := p.runStages(data, forceRaw, halve)

	label := "raster"
	if forceRaw {
		label = "raw"
	} else if sniff.Classify(data) == sniff.FormatJPEG {
		label = "jpeg"
	}
	status := "ok"
	if perr != nil {
		status = perr.Kind.String()
	}
	metrics.PreviewsTotal.WithLabelValues(label, status).Inc()
	metrics.PreviewDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if out != nil {
		metrics.PreviewOutputBytes.WithLabelValues(label).Observe(float64(len(out.jpeg)))
	}
	return out, perr
}

func (p *Pipeline) runStages(data []byte, forceRaw, halve bool) (*output, *Error) {
	if len(data) == 0 {
		return nil, failuref(KindEmptyInput, "input buffer is empty")
	}

	format := sniff.Classify(data)
	quality := p.ImageQuality
	if quality < 1 || quality > 100 {
		quality = encode.QualityStandard
	}

	var dec decode.Decoder
	switch {
	case forceRaw:
		dec = decode.NewRawDecoder(p.sensor)
		quality = p.RawQuality
		if quality < 1 || quality > 100 {
			quality = encode.QualityRaw
		}
	case format == sniff.FormatJPEG:
		dec = &decode.JPEGDecoder{HalveOutput: halve}
	default:
		dec = &decode.RasterDecoder{HalveOutput: halve}
	}

	res, err := dec.Decode(data)
	if err != nil {
		return nil, decodeFailure(err)
	}

	buf := pixel.Orient(res.Buffer, res.Orientation)

	jpg, err := encode.Bytes(buf, quality)
	if err != nil {
		return nil, failure(KindEncodeFailed, err)
	}

	meta := p.assemble(jpg, data, res, buf, format, forceRaw)
	return &output{jpeg: jpg, meta: meta, format: format}, nil
}

// decodeFailure maps adapter sentinels onto the pipeline taxonomy.
func decodeFailure(err error) *Error {
	switch {
	case errors.Is(err, decode.ErrUnpack):
		return failure(KindUnpackFailed, err)
	case errors.Is(err, decode.ErrUnsupported):
		return failure(KindUnsupportedFormat, err)
	case errors.Is(err, decode.ErrOpen):
		return failure(KindOpenFailed, err)
	default:
		return failure(KindDecodeFailed, err)
	}
}

// assemble builds the metadata record for a finished preview. Sources are
// considered in precedence order and the first one present wins whole; the
// orchestrator then patches the fields only it knows.
func (p *Pipeline) assemble(jpg, input []byte, res *decode.Result, buf *pixel.Buffer, format sniff.Format, isRaw bool) *exifdata.Record {
	fromOutput := parseQuiet(jpg)
	fromInput := parseQuiet(input)

	var placeholder *exifdata.Record
	switch format {
	case sniff.FormatJPEG:
		placeholder = exifdata.ForJPEG()
	case sniff.FormatPNG:
		placeholder = exifdata.ForPNG()
	default:
		placeholder = exifdata.ForRaster()
	}

	rec := exifdata.Merge(fromOutput, fromInput, res.Meta, placeholder)

	rec.OutputWidth = buf.Width
	rec.OutputHeight = buf.Height
	rec.Colors = pixel.Channels
	if !isRaw {
		rec.ColorFilter = 0
	} else if res.Meta != nil && res.Meta.ColorFilter != 0 {
		rec.ColorFilter = res.Meta.ColorFilter
	}
	// White-balance multipliers only ever come from the sensor stage; EXIF
	// has no tag for them, so a merge winner cannot supply them.
	if isRaw && res.Meta != nil && res.Meta.CamMul != ([4]float64{}) {
		rec.CamMul = res.Meta.CamMul
	}
	if rec.RawWidth == 0 {
		rec.RawWidth = res.SourceWidth
		rec.RawHeight = res.SourceHeight
	}
	rec.Normalize()
	return rec
}

func parseQuiet(data []byte) *exifdata.Record {
	rec, err := exifdata.ParseBytes(data)
	if err != nil {
		return nil
	}
	return rec
}

// writeOut persists an encoded preview. Failures here are the only source
// of KindWriteFailed.
func writeOut(path string, jpg []byte) *Error {
	if err := os.WriteFile(path, jpg, 0o644); err != nil {
		return failure(KindWriteFailed, err)
	}
	return nil
}

// Process converts the file at pathIn into a JPEG preview at pathOut,
// routing by the input extension. RAW dialects run through the sensor
// decoder at quarter area; standard images are re-encoded at full
// resolution. Unsupported extensions fail before any read of pixel data.
func (p *Pipeline) Process(pathIn, pathOut string) (*exifdata.Record, error) {
	kind := sniff.KindForPath(pathIn)
	if kind == sniff.PathKindUnsupported {
		return nil, failuref(KindDecodeFailed, "unsupported file format: %s", pathIn)
	}

	data, err := os.ReadFile(pathIn)
	if err != nil {
		return nil, failure(KindOpenFailed, err)
	}

	out, perr := p.run(data, kind == sniff.PathKindRaw, false)
	if perr != nil {
		logging.Debug("preview of %s failed: %v", pathIn, perr)
		return nil, perr
	}
	if werr := writeOut(pathOut, out.jpeg); werr != nil {
		return nil, werr
	}
	return out.meta, nil
}

// ProcessBytes converts an in-memory standard image (JPEG, PNG, or any other
// decodable raster) into a half-size preview at pathOut.
func (p *Pipeline) ProcessBytes(data []byte, pathOut string) (*exifdata.Record, error) {
	out, perr := p.run(data, false, true)
	if perr != nil {
		return nil, perr
	}
	if werr := writeOut(pathOut, out.jpeg); werr != nil {
		return nil, werr
	}
	return out.meta, nil
}

// ConvertRawBytes converts an in-memory RAW buffer into a quarter-area
// preview at pathOut.
func (p *Pipeline) ConvertRawBytes(data []byte, pathOut string) (*exifdata.Record, error) {
	out, perr := p.run(data, true, false)
	if perr != nil {
		return nil, perr
	}
	if werr := writeOut(pathOut, out.jpeg); werr != nil {
		return nil, werr
	}
	return out.meta, nil
}

// ProcessBytesToVec is ProcessBytes without the file write: the encoded
// JPEG is returned to the caller.
func (p *Pipeline) ProcessBytesToVec(data []byte) ([]byte, *exifdata.Record, error) {
	out, perr := p.run(data, false, true)
	if perr != nil {
		return nil, nil, perr
	}
	return out.jpeg, out.meta, nil
}

// ConvertRawBytesToVec is ConvertRawBytes without the file write.
func (p *Pipeline) ConvertRawBytesToVec(data []byte) ([]byte, *exifdata.Record, error) {
	out, perr := p.run(data, true, false)
	if perr != nil {
		return nil, nil, perr
	}
	return out.jpeg, out.meta, nil
}

// Package-level entry points on the shared Default pipeline.

// Process converts pathIn to a preview at pathOut using Default.
func Process(pathIn, pathOut string) (*exifdata.Record, error) {
	return Default.Process(pathIn, pathOut)
}

// ProcessBytes converts an in-memory standard image using Default.
func ProcessBytes(data []byte, pathOut string) (*exifdata.Record, error) {
	return Default.ProcessBytes(data, pathOut)
}

// ConvertRawBytes converts an in-memory RAW buffer using Default.
func ConvertRawBytes(data []byte, pathOut string) (*exifdata.Record, error) {
	return Default.ConvertRawBytes(data, pathOut)
}

// ProcessBytesToVec converts an in-memory standard image using Default and
// returns the encoded JPEG.
func ProcessBytesToVec(data []byte) ([]byte, *exifdata.Record, error) {
	return Default.ProcessBytesToVec(data)
}

// ConvertRawBytesToVec converts an in-memory RAW buffer using Default and
// returns the encoded JPEG.
func ConvertRawBytesToVec(data []byte) ([]byte, *exifdata.Record, error) {
	return Default.ConvertRawBytesToVec(data)
}
