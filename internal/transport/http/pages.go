package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/nadzzz/glass/internal/health"
)

//go:embed web/*.html
var webFS embed.FS

type pageData struct {
	Version  string
	Detached bool
	Path     string
}

type pages struct {
	tmpl *template.Template
}

func loadPages() (*pages, error) {
	tmpl, err := template.ParseFS(webFS, "web/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	return &pages{tmpl: tmpl}, nil
}

// render executes the named page into a buffer first so a template failure
// still yields a clean 500.
func (p *pages) render(w http.ResponseWriter, status int, name string, data pageData) {
	if data.Version == "" {
		data.Version = health.Version
	}
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering page", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) handleIndex(w http.ResponseWriter, r *http.Request) {
	t.pages.render(w, http.StatusOK, "index.html", pageData{})
}

func (t *Transport) handleDetached(w http.ResponseWriter, r *http.Request) {
	t.pages.render(w, http.StatusOK, "index.html", pageData{Detached: true})
}

func (t *Transport) handlePageNotFound(w http.ResponseWriter, r *http.Request) {
	t.pages.render(w, http.StatusNotFound, "404.html", pageData{Path: r.URL.Path})
}
