package api

import (
	"context"
	"net/http"
	"time"

	"github.com/snarg/verba/internal/ingest"
)

type HealthResponse struct {
	Status        string                `json:"status"`
	Version       string                `json:"version"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Checks        map[string]string     `json:"checks"`
	Watcher       *ingest.WatcherStatus `json:"watcher,omitempty"`
}

// HealthChecker is the database surface the health endpoint needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// WatcherStatusSource reports file watcher state; nil when no watcher runs.
type WatcherStatusSource interface {
	Status() *ingest.WatcherStatus
}

type HealthHandler struct {
	db        HealthChecker
	watcher   WatcherStatusSource
	version   string
	startTime time.Time
}

func NewHealthHandler(db HealthChecker, watcher WatcherStatusSource, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		watcher:   watcher,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	var watcher *ingest.WatcherStatus
	if h.watcher != nil {
		watcher = h.watcher.Status()
		checks["file_watcher"] = watcher.Status
		if watcher.Status == "stopped" && status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["file_watcher"] = "not_configured"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
		Watcher:       watcher,
	})
}
