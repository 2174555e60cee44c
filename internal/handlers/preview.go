package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"raw-preview/internal/encode"
	"raw-preview/internal/exifdata"
	"raw-preview/internal/filesystem"
	"raw-preview/internal/logging"
	"raw-preview/internal/preview"
	"raw-preview/internal/sniff"
)

var errPathEscapes = errors.New("path escapes the media root")

// resolveMediaPath maps a request-supplied relative path onto the media
// root, rejecting anything that would escape it.
func (h *Handlers) resolveMediaPath(rel string) (string, error) {
	if rel == "" {
		return "", errors.New("missing path parameter")
	}
	if filepath.IsAbs(rel) {
		return "", errPathEscapes
	}

	abs := filepath.Join(h.mediaDir, filepath.Clean("/"+rel))
	if abs != h.mediaDir && !strings.HasPrefix(abs, h.mediaDir+string(filepath.Separator)) {
		return "", errPathEscapes
	}
	return abs, nil
}

// renderFile produces (or fetches from cache) the preview for a file under
// the media root.
func (h *Handlers) renderFile(r *http.Request, rel string) ([]byte, *exifdata.Record, error) {
	abs, err := h.resolveMediaPath(rel)
	if err != nil {
		return nil, nil, &preview.Error{Kind: preview.KindOpenFailed, Err: err}
	}

	kind := sniff.KindForPath(abs)
	if kind == sniff.PathKindUnsupported {
		return nil, nil, &preview.Error{Kind: preview.KindDecodeFailed, Err: fmt.Errorf("unsupported file format: %s", rel)}
	}

	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil || info.IsDir() {
		return nil, nil, &preview.Error{Kind: preview.KindOpenFailed, Err: fmt.Errorf("no such file: %s", rel)}
	}

	if h.cache != nil {
		if entry, jpg, ok := h.cache.Lookup(r.Context(), abs, info.ModTime(), info.Size()); ok {
			return jpg, entry.Meta, nil
		}
	}

	data, err := filesystem.ReadFileWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, nil, &preview.Error{Kind: preview.KindOpenFailed, Err: err}
	}

	var (
		jpg  []byte
		meta *exifdata.Record
	)
	if kind == sniff.PathKindRaw {
		jpg, meta, err = h.pipeline.ConvertRawBytesToVec(data)
	} else {
		jpg, meta, err = h.pipeline.ProcessBytesToVec(data)
	}
	if err != nil {
		return nil, nil, err
	}

	if h.cache != nil {
		if err := h.cache.Store(r.Context(), abs, info.ModTime(), info.Size(), jpg, meta, h.qualityFor(kind)); err != nil {
			logging.Warn("failed to cache preview for %s: %v", rel, err)
		}
	}
	return jpg, meta, nil
}

func (h *Handlers) qualityFor(kind sniff.PathKind) int {
	if kind == sniff.PathKindRaw {
		if q := h.pipeline.RawQuality; q >= 1 && q <= 100 {
			return q
		}
		return encode.QualityRaw
	}
	if q := h.pipeline.ImageQuality; q >= 1 && q <= 100 {
		return q
	}
	return encode.QualityStandard
}

// GetPreview serves the JPEG preview for ?path=.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	jpg, _, err := h.renderFile(r, r.URL.Query().Get("path"))
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJPEG(w, jpg)
}

// GetPreviewMeta serves the metadata record for ?path=.
func (h *Handlers) GetPreviewMeta(w http.ResponseWriter, r *http.Request) {
	_, meta, err := h.renderFile(r, r.URL.Query().Get("path"))
	if err != nil {
		writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, meta)
}

// readUpload drains a bounded POST body.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "failed to read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return data, true
}

func wantsRaw(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("raw")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *Handlers) convertUpload(w http.ResponseWriter, r *http.Request) ([]byte, *exifdata.Record, bool) {
	data, ok := readUpload(w, r)
	if !ok {
		return nil, nil, false
	}

	var (
		jpg  []byte
		meta *exifdata.Record
		err  error
	)
	if wantsRaw(r) {
		jpg, meta, err = h.pipeline.ConvertRawBytesToVec(data)
	} else {
		jpg, meta, err = h.pipeline.ProcessBytesToVec(data)
	}
	if err != nil {
		writePipelineError(w, err)
		return nil, nil, false
	}
	return jpg, meta, true
}

// PostPreview converts an uploaded image buffer and responds with the JPEG
// preview. ?raw=true forces the RAW decode path regardless of magic bytes.
func (h *Handlers) PostPreview(w http.ResponseWriter, r *http.Request) {
	jpg, _, ok := h.convertUpload(w, r)
	if !ok {
		return
	}
	writeJPEG(w, jpg)
}

// PostPreviewMeta converts an uploaded image buffer and responds with the
// metadata record only.
func (h *Handlers) PostPreviewMeta(w http.ResponseWriter, r *http.Request) {
	_, meta, ok := h.convertUpload(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, meta)
}

func writeJPEG(w http.ResponseWriter, jpg []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(jpg)))
	if _, err := w.Write(jpg); err != nil {
		logging.Debug("failed to write preview response: %v", err)
	}
}
