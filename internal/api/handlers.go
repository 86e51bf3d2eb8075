package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck is one named dependency check
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports the health of the API and its dependencies
type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health returns 200 when every dependency answers, 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			deps[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[check.Name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"message":      "LeanFeast API is running",
		"dependencies": deps,
	})
}
