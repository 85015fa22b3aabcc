package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snarg/verba/internal/ingest"
)

type stubHealthDB struct{ err error }

func (db *stubHealthDB) HealthCheck(ctx context.Context) error { return db.err }

type stubWatcherStatus struct{ status string }

func (s *stubWatcherStatus) Status() *ingest.WatcherStatus {
	return &ingest.WatcherStatus{Status: s.status, WatchDir: "/inbox"}
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(&stubHealthDB{}, &stubWatcherStatus{status: "watching"}, "1.2.3", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON body: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("Status = %q, want healthy", resp.Status)
		}
		if resp.Checks["database"] != "ok" || resp.Checks["file_watcher"] != "watching" {
			t.Errorf("Checks = %v", resp.Checks)
		}
		if resp.Version != "1.2.3" {
			t.Errorf("Version = %q, want 1.2.3", resp.Version)
		}
	})

	t.Run("db_down_unhealthy", func(t *testing.T) {
		h := NewHealthHandler(&stubHealthDB{err: errors.New("refused")}, nil, "1.2.3", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("no_watcher_not_configured", func(t *testing.T) {
		h := NewHealthHandler(&stubHealthDB{}, nil, "1.2.3", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

		var resp HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON body: %v", err)
		}
		if resp.Checks["file_watcher"] != "not_configured" {
			t.Errorf("file_watcher check = %q, want not_configured", resp.Checks["file_watcher"])
		}
	})
}
