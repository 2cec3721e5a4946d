package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db    Pinger
	cache redis.Cmdable
}

// NewHealthHandler creates a new HealthHandler. cache may be nil when the
// service runs without an idempotency cache.
func NewHealthHandler(db Pinger, cache redis.Cmdable) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service can accept traffic. An unreachable
// cache only degrades the service.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "postgres unhealthy", err.Error())
		return
	}

	status, redisStatus := "ready", "ok"
	switch {
	case h.cache == nil:
		redisStatus = "disabled"
	case h.cache.Ping(ctx).Err() != nil:
		status, redisStatus = "degraded", "unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"postgres": "ok",
		"redis":    redisStatus,
	})
}
