package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/mgijax/wts/errors"
	"github.com/mgijax/wts/service"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithServiceError maps an error from the dependency service to a status code.
func respondWithServiceError(c *gin.Context, err error, logger *zap.Logger, fields ...zap.Field) {
	var cycleErr *service.CycleError
	switch {
	case errors.As(err, &cycleErr):
		violations := make([]gin.H, len(cycleErr.Violations))
		for i, v := range cycleErr.Violations {
			violations[i] = gin.H{"origin": v.Origin, "target": v.Target}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      cycleErr.Error(),
			"violations": violations,
		})
	case apperrors.IsInvalidInput(err):
		respondWithClientError(c, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		respondWithClientError(c, http.StatusNotFound, err.Error())
	case apperrors.IsStoreCommunication(err):
		respondWithError(c, http.StatusServiceUnavailable, err, "Dependency store unavailable, try again later", logger, fields...)
	default:
		respondWithError(c, http.StatusInternalServerError, err, "Internal server error", logger, fields...)
	}
}
