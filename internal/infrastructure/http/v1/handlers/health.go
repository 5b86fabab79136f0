// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ordercore/internal/infrastructure/storage/postgres"
)

const readyTimeout = 2 * time.Second

// HealthHandler serves the probes. A nil pool means the in-memory store.
type HealthHandler struct {
	pool *postgres.Pool
}

func NewHealthHandler(pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

type healthResponse struct {
	Status  string              `json:"status"`
	Storage string              `json:"storage"`
	Checks  map[string]string   `json:"checks,omitempty"`
	Pool    *postgres.PoolStats `json:"pool,omitempty"`
}

// Live reports that the process is up.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Storage: h.storage()})
}

// Ready reports whether storage can serve requests.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := healthResponse{Status: "ok", Storage: h.storage()}
	if h.pool == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	stats := h.pool.Stats()
	resp.Pool = &stats
	if err := h.pool.Ping(ctx); err != nil {
		resp.Status = "error"
		resp.Checks = map[string]string{"database": "unhealthy: " + err.Error()}
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.Checks = map[string]string{"database": "healthy"}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) storage() string {
	if h.pool == nil {
		return "memory"
	}
	return "postgres"
}
