package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	store   Pinger
	redis   Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// cache is disabled.
func NewHealthHandler(store, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		redis:   redis,
		version: version,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Check PostgreSQL
	if err := h.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "postgres unhealthy: "+err.Error())
		return
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unhealthy: "+err.Error())
			return
		}
		redisStatus = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"postgres": "ok",
		"redis":    redisStatus,
	})
}

// Ping answers without touching any dependency.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, envelope{"message": "pong"})
}

// Version reports the build version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, envelope{"version": h.version})
}
