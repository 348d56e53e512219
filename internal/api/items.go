package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/upload"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead covers the text fields and multipart framing on top of the
// image itself.
const formOverhead = 1 << 20

// ItemsHandler handles the item endpoints.
type ItemsHandler struct {
	Items   ItemStore
	Uploads *upload.Uploader
}

// List handles GET /api/items. Optional status and q parameters filter the
// list with the same predicate the board applies in the browser.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.Filter{Status: query.Get("status"), Search: query.Get("q")}
	if s := strings.ToLower(filter.Status); s != "" && s != model.FilterAll {
		if _, err := model.ParseStatus(s); err != nil {
			jsonError(w, http.StatusBadRequest, "status must be one of: all, lost, found")
			return
		}
	}

	items, err := h.Items.List(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to load items")
		return
	}

	if filter != (model.Filter{}) {
		items = filter.Apply(items)
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. Fields are validated before the photo is
// stored, and a stored photo is removed again when the row cannot be written.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxBytes()+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := model.NewItem{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Contact:     r.FormValue("contact"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
		Status:      model.Status(r.FormValue("status")),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		writeError(w, r, err, "invalid item")
		return
	}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			jsonError(w, http.StatusBadRequest, "invalid image field")
			return
		default:
			defer file.Close()
			// Browsers send an empty part when no file was chosen.
			if header.Size > 0 {
				path, err := h.Uploads.Save(r.Context(), file, header.Filename)
				if err != nil {
					writeError(w, r, err, "failed to store image")
					return
				}
				in.Image = path
			}
		}
	}

	id, err := h.Items.Create(r.Context(), in)
	if err != nil {
		if in.Image != "" {
			h.discard(r.Context(), in.Image)
		}
		writeError(w, r, err, "failed to save item")
		return
	}

	slog.Info("item reported", "id", id, "status", in.Status, "image", in.Image != "")
	jsonResponse(w, http.StatusOK, map[string]int64{"id": id})
}

// discard removes an orphaned upload, even if the request was cancelled.
func (h *ItemsHandler) discard(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := h.Uploads.Discard(ctx, path); err != nil {
		slog.Error("failed to remove orphaned upload", "image", path, "error", err)
	}
}

// Health handles GET /api/health.
func (h *ItemsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Items.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		jsonError(w, http.StatusServiceUnavailable, "item store unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
