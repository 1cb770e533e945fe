package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/service"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler exposes observability endpoints.
type HealthHandler struct {
	service string
	metrics *service.MetricsService
	db      pinger
}

// NewHealthHandler constructs a health handler. db may be nil.
func NewHealthHandler(serviceName string, metrics *service.MetricsService, db pinger) *HealthHandler {
	return &HealthHandler{service: serviceName, metrics: metrics, db: db}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness and readiness
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": h.service})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}
