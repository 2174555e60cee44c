package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"raw-preview/internal/logging"
	"raw-preview/internal/preview"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writePipelineError maps a pipeline failure onto an HTTP status. Input
// problems are the client's fault; encode and write failures are ours.
func writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var perr *preview.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case preview.KindEmptyInput:
			status = http.StatusBadRequest
		case preview.KindOpenFailed:
			status = http.StatusNotFound
		case preview.KindUnpackFailed, preview.KindDecodeFailed, preview.KindUnsupportedFormat:
			status = http.StatusUnprocessableEntity
		}
	}

	writeJSONError(w, err.Error(), status)
}
