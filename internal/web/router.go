package web

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/model"
	webembed "github.com/erazemk/lostfound/web"
)

// Options configures the board page.
type Options struct {
	Title string
	// ShowTime enables the optional time-of-day input.
	ShowTime bool
	// MaxSize is the human-readable upload limit shown next to the photo input.
	MaxSize string
	// StaticDir serves assets from disk instead of the embedded bundle.
	StaticDir string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Templates *Templates
	Options   Options
}

// NewRouter creates the web page router.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = "Lost & Found"
	}

	s := &Server{Templates: templates, Options: opts}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(noDirFS{webembed.StaticFS(opts.StaticDir)}))))

	mux.HandleFunc("GET /{$}", s.Index)

	return mux, nil
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "index.html", &PageData{
		Title:    s.Options.Title,
		Statuses: model.Statuses,
		ShowTime: s.Options.ShowTime,
		MaxSize:  s.Options.MaxSize,
	})
}
