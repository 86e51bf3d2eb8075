package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/leanfeast/backend/internal/service"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMalformedDraft):
		return http.StatusBadGateway
	case service.IsTransient(err), errors.Is(err, service.ErrQuotaExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status with a JSON error body. Internal
// details are only exposed for client errors.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	switch status {
	case http.StatusBadGateway:
		msg = "the recipe model returned an unusable response"
	case http.StatusServiceUnavailable:
		msg = "an upstream service is temporarily unavailable, please retry"
	case http.StatusInternalServerError:
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
