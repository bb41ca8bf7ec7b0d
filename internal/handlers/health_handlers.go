package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool, caching.CacheService and services.MinioService.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	database Pinger
	cache    Pinger
	storage  Pinger
	version  string
	started  time.Time
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHealthHandlers creates a new health handlers instance. cache and storage
// may be nil when those backends are not configured.
func NewHealthHandlers(database, cache, storage Pinger, version string, logger *zap.Logger) *HealthHandlers {
	return &HealthHandlers{
		database: database,
		cache:    cache,
		storage:  storage,
		version:  version,
		started:  time.Now(),
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// LivenessCheck handles GET /health
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	})
}

// ReadinessCheck handles GET /health/ready. The database is critical; cache
// and storage failures only degrade the result.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}

	statusCode := http.StatusOK
	if !h.check(ctx, health, "database", h.database) {
		health.Status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	for name, dep := range map[string]Pinger{"redis": h.cache, "storage": h.storage} {
		if !h.check(ctx, health, name, dep) && health.Status == "ready" {
			health.Status = "degraded"
		}
	}

	return c.JSON(statusCode, health)
}

func (h *HealthHandlers) check(ctx context.Context, health *HealthStatus, name string, dep Pinger) bool {
	if dep == nil {
		health.Services[name] = "disabled"
		return true
	}
	if err := dep.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.String("service", name), zap.Error(err))
		health.Services[name] = "unhealthy"
		return false
	}
	health.Services[name] = "healthy"
	return true
}
