package api

import (
	"context"
	"net/http"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/upload"
)

// ItemStore is the repository the API needs.
type ItemStore interface {
	Create(ctx context.Context, in model.NewItem) (int64, error)
	List(ctx context.Context) ([]model.Item, error)
	Ping(ctx context.Context) error
}

// NewRouter creates the API router: item endpoints, health and uploaded files.
func NewRouter(items ItemStore, uploads *upload.Uploader) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Items: items, Uploads: uploads}

	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/health", itemsHandler.Health)

	// Uploaded photos are public and read-only.
	mux.Handle("GET /uploads/{name}", uploads)

	return mux
}
