// Package server implements the HTTP server and routing logic.
package server

import (
	"io"
	"net/http"

	"github.com/maruel/mdpages/internal/server/handlers"
)

// RouterConfig holds what NewRouter needs to build the route table.
type RouterConfig struct {
	// Editor stores documents submitted to /edit.
	Editor handlers.Editor
	// PublicDir is served read-only under /files/.
	PublicDir string
	Version   string
	Mode      string
	Options   Options
}

// NewRouter creates and configures the HTTP router.
//
// Serves the edit API at /edit, stored files at /files/ and a health check
// at /api/health.
func NewRouter(cfg *RouterConfig) http.Handler {
	mux := &http.ServeMux{}
	opts := &cfg.Options

	hh := handlers.NewHealthHandler(cfg.Version, cfg.Mode)
	mux.Handle("GET /api/health", Wrap(hh.Health, opts))

	eh := handlers.NewEditHandler(cfg.Editor)
	mux.Handle("POST /edit", Wrap(eh.Edit, opts))
	mux.Handle("DELETE /edit", Wrap(eh.Delete, opts))

	files := http.StripPrefix("/files", http.FileServer(http.Dir(cfg.PublicDir)))
	mux.Handle("GET /files/", WrapRaw(files, opts))

	// Answers every method.
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Welcome!")
	})
	mux.Handle("GET /{$}", http.RedirectHandler("/index.html", http.StatusFound))

	return logRequests(mux, opts.TrustedProxies)
}
