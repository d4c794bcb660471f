package api

import (
	"errors"
	"log"
	"net/http"

	"alcyxob/plan-tracker/internal/lifecycle"
	"alcyxob/plan-tracker/internal/repository"
	"alcyxob/plan-tracker/internal/schedule"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors to HTTP status codes. Order matters:
// ErrNoActiveAssignment also matches lifecycle.ErrInvalidState.
var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrNoActiveAssignment, http.StatusNotFound},
	{service.ErrNoFinishedAssignment, http.StatusNotFound},
	{service.ErrPlanNotFound, http.StatusNotFound},
	{service.ErrAssignmentNotFound, http.StatusNotFound},
	{service.ErrClientNotFound, http.StatusNotFound},
	{service.ErrImageNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},

	{schedule.ErrInvalidConfiguration, http.StatusBadRequest},
	{service.ErrInvalidPlanKind, http.StatusBadRequest},
	{service.ErrPlanTitleRequired, http.StatusBadRequest},
	{service.ErrEmptyPatch, http.StatusBadRequest},
	{service.ErrWrongPlanKind, http.StatusBadRequest},
	{service.ErrInvalidImageType, http.StatusBadRequest},
	{service.ErrObjectKeyMismatch, http.StatusBadRequest},
	{service.ErrUploadMissing, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrMissingCredentials, http.StatusBadRequest},

	{service.ErrAuthenticationFailed, http.StatusUnauthorized},

	{service.ErrPlanAccessDenied, http.StatusForbidden},
	{service.ErrAssignmentAccessDenied, http.StatusForbidden},
	{service.ErrClientNotManaged, http.StatusForbidden},
	{service.ErrClientNotRole, http.StatusForbidden},
	{service.ErrNotProfessional, http.StatusForbidden},

	{lifecycle.ErrInvalidState, http.StatusConflict},
	{lifecycle.ErrScheduleExhausted, http.StatusConflict},
	{service.ErrClientAlreadyAssigned, http.StatusConflict},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{repository.ErrDuplicateKey, http.StatusConflict},
}

// abortWithServiceError writes the mapped status for err. Unmapped errors are logged
// and answered with 500 and the generic message.
func abortWithServiceError(c *gin.Context, err error, message string) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			abortWithError(c, m.code, err.Error())
			return
		}
	}
	log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
	abortWithError(c, http.StatusInternalServerError, message)
}
