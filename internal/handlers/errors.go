package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/middleware"
)

var lifecycleStatus = map[lifecycle.Kind]struct {
	status int
	code   string
}{
	lifecycle.KindInvalidTransition:    {http.StatusConflict, apierrors.ErrCodeInvalidTransition},
	lifecycle.KindDuplicateApplication: {http.StatusConflict, apierrors.ErrCodeDuplicateApplication},
	lifecycle.KindCapacityExceeded:     {http.StatusConflict, apierrors.ErrCodeCapacityExceeded},
	lifecycle.KindAssignmentNotActive:  {http.StatusConflict, apierrors.ErrCodeAssignmentNotActive},
	lifecycle.KindAlreadyApproved:      {http.StatusConflict, apierrors.ErrCodeAlreadyApproved},
	lifecycle.KindResourceInUse:        {http.StatusConflict, apierrors.ErrCodeResourceInUse},
	lifecycle.KindOpportunityClosed:    {http.StatusUnprocessableEntity, apierrors.ErrCodeOpportunityClosed},
	lifecycle.KindInvalidHours:         {http.StatusBadRequest, apierrors.ErrCodeInvalidHours},
	lifecycle.KindInvalidInput:         {http.StatusBadRequest, apierrors.ErrCodeInvalidInput},
	lifecycle.KindUnauthorized:         {http.StatusForbidden, apierrors.ErrCodeForbidden},
	lifecycle.KindNotFound:             {http.StatusNotFound, apierrors.ErrCodeNotFound},
	lifecycle.KindCounterUnderflow:     {http.StatusInternalServerError, apierrors.ErrCodeCounterUnderflow},
	lifecycle.KindStorageUnavailable:   {http.StatusServiceUnavailable, apierrors.ErrCodeServiceUnavailable},
}

// lifecycleErrorCode returns the API code for a failure kind
func lifecycleErrorCode(kind lifecycle.Kind) string {
	if m, ok := lifecycleStatus[kind]; ok {
		return m.code
	}
	return apierrors.ErrCodeInternalError
}

// respondLifecycleError writes the response for an engine error. Internal
// details of storage failures are logged, not returned.
func respondLifecycleError(c *gin.Context, logger *zap.Logger, err error) {
	kind := lifecycle.KindOf(err)
	m, ok := lifecycleStatus[kind]
	if !ok {
		m.status, m.code = http.StatusInternalServerError, apierrors.ErrCodeInternalError
	}

	message := err.Error()
	switch kind {
	case lifecycle.KindStorageUnavailable:
		logger.Error("Storage failure", zap.String("path", c.FullPath()), zap.Error(err))
		message = "Service temporarily unavailable"
	case lifecycle.KindCounterUnderflow:
		message = "Hours counter is inconsistent; the change was not applied"
	}

	apierrors.Respond(c, m.status, m.code, message)
}

// parseIDParam reads a positive ID from the named path parameter.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery reads an optional ID query parameter.
func parseOptionalIDQuery(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// requireActor returns the actor of the request or answers 401.
func requireActor(c *gin.Context) (lifecycle.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
	}
	return actor, ok
}
