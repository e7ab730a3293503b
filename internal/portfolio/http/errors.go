package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

// writeError maps data-layer errors onto the wire contract: client mistakes
// are 400-class with a human-readable message (validation failures enumerate
// every offending field), backend exhaustion is 500-class.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": verr.Details(),
		})
	case errors.Is(err, domain.ErrInvalidSection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown section"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrBackendUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
