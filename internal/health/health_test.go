package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	c := New()
	c.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	mux := http.NewServeMux()
	c.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["version"] != "2.0.0" || body["timestamp"] != "2025-01-02T03:04:05Z" {
		t.Errorf("body = %v", body)
	}
}

func TestProbes(t *testing.T) {
	c := New()
	mux := http.NewServeMux()
	c.Register(mux)

	tests := []struct {
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{false, http.StatusServiceUnavailable, "not_ready"},
		{true, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		c.SetReady(tt.ready)
		for _, path := range []string{"/healthz", "/readyz"} {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("%s ready=%v: status = %d, want %d", path, tt.ready, rec.Code, tt.wantStatus)
			}
			var body map[string]string
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if body["status"] != tt.wantBody {
				t.Errorf("%s ready=%v: status field = %q", path, tt.ready, body["status"])
			}
		}
	}
}
