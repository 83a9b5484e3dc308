package api

import (
	"errors"
	"net/http"

	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps a service error onto a status code and aborts the request.
// Validation failures carry their per-field messages.
func respondError(c *gin.Context, err error) {
	var verrs service.ValidationErrors
	isValidation := errors.As(err, &verrs)

	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": service.ErrDuplicateIdentity.Error(), "fields": verrs})
	case isValidation:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verrs})
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrMeasurementNotFound),
		errors.Is(err, service.ErrPhotoNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTemplateInUse):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrFileTypeRejected):
		abortWithError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrTrainerAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	default:
		log.Errorf("%s %s: %s", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// WarningsResponse is attached to successful writes whose file cleanup or
// upload partly failed.
type WarningsResponse struct {
	Warnings []string `json:"warnings"`
}

func warningsOf(warning error) []string {
	if warning == nil {
		return []string{}
	}
	return service.Warnings(warning)
}
