package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/upload"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// retryAfterSeconds is advertised when a store or upload deadline passes.
const retryAfterSeconds = "5"

// writeError maps err to a status code and a stable message. The full error
// is logged; only the categorized message reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Error())
		return
	case errors.Is(err, upload.ErrUnsupportedType):
		slog.Warn("rejected upload", "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusBadRequest, "image must be a JPEG, PNG, GIF or WebP file")
		return
	case errors.Is(err, upload.ErrTooLarge):
		slog.Warn("rejected upload", "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	slog.Error(fallback, "method", r.Method, "path", r.URL.Path, "error", err)

	switch {
	case errors.Is(err, store.ErrTimeout), errors.Is(err, upload.ErrTimeout):
		w.Header().Set("Retry-After", retryAfterSeconds)
		jsonError(w, http.StatusServiceUnavailable, "request timed out, please try again")
	case errors.Is(err, upload.ErrStorage):
		jsonError(w, http.StatusInternalServerError, "failed to store image")
	default:
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
