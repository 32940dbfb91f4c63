package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogflow/internal/concurrent"
	"blogflow/pkg/logger"
)

const Version = "1.0.0"

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolStats exposes worker pool counters.
type PoolStats interface {
	GetStats() concurrent.Stats
	QueueLength() int
	QueueCapacity() int
}

type HealthHandler struct {
	store   Pinger
	pool    PoolStats
	dbStats func() map[string]interface{}
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
	Version   string                 `json:"version"`
}

// NewHealthHandler builds the handler. dbStats may be nil when the store is
// not backed by database/sql.
func NewHealthHandler(store Pinger, pool PoolStats, dbStats func() map[string]interface{}, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		pool:    pool,
		dbStats: dbStats,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	services := map[string]interface{}{
		"database":    h.checkDatabaseHealth(r.Context()),
		"worker_pool": h.workerPoolStats(),
	}

	status := "healthy"
	if db, ok := services["database"].(map[string]interface{}); ok && db["status"] != "healthy" {
		status = "degraded"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   Version,
	})
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) map[string]interface{} {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Database health check failed", map[string]interface{}{"error": err.Error()})
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	result := map[string]interface{}{"status": "healthy"}
	if h.dbStats != nil {
		for k, v := range h.dbStats() {
			result[k] = v
		}
	}
	return result
}

func (h *HealthHandler) workerPoolStats() map[string]interface{} {
	if h.pool == nil {
		return map[string]interface{}{"status": "disabled"}
	}

	stats := h.pool.GetStats()
	return map[string]interface{}{
		"status":         "healthy",
		"queue_length":   h.pool.QueueLength(),
		"queue_capacity": h.pool.QueueCapacity(),
		"pending":        stats.Pending(),
		"submitted":      stats.Submitted,
		"completed":      stats.Completed,
		"failed":         stats.Failed,
		"rejected":       stats.Rejected,
		"avg_process":    stats.AvgProcessTime.String(),
	}
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	body := map[string]interface{}{"timestamp": time.Now().UTC()}

	if err := h.store.Ping(ctx); err != nil {
		body["status"] = "not_ready"
		body["issues"] = []string{"database: " + err.Error()}
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "ready"
	writeJSON(w, http.StatusOK, body)
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
