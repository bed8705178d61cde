// Package health provides the HTTP health check endpoints.
//
// /health is the assistant's own liveness document. /healthz and /readyz
// follow the Docker and Kubernetes probe conventions: they return 503 until
// the process is marked ready.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Version is reported by /health.
const Version = "2.0.0"

// Checker tracks readiness and serves the health endpoints.
type Checker struct {
	ready atomic.Bool
	now   func() time.Time
}

// New creates a Checker that starts out not ready.
func New() *Checker {
	return &Checker{now: time.Now}
}

// SetReady marks the process as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// Ready reports whether the process is ready.
func (c *Checker) Ready() bool { return c.ready.Load() }

// Register mounts the health endpoints on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("GET /healthz", c.handleProbe)
	mux.HandleFunc("GET /readyz", c.handleProbe)
}

// handleHealth godoc
//
//	@Summary	Liveness document
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": c.now().Format(time.RFC3339Nano),
		"version":   Version,
	})
}

func (c *Checker) handleProbe(w http.ResponseWriter, r *http.Request) {
	if !c.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
