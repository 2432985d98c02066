package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInvalidHours = "INVALID_HOURS"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeResourceInUse = "RESOURCE_IN_USE"

	// Lifecycle errors
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeDuplicateApplication = "DUPLICATE_APPLICATION"
	ErrCodeCapacityExceeded     = "CAPACITY_EXCEEDED"
	ErrCodeOpportunityClosed    = "OPPORTUNITY_CLOSED"
	ErrCodeAssignmentNotActive  = "ASSIGNMENT_NOT_ACTIVE"
	ErrCodeAlreadyApproved      = "ALREADY_APPROVED"
	ErrCodeCounterUnderflow     = "COUNTER_UNDERFLOW"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond sends an error response with an explicit code
func Respond(c *gin.Context, statusCode int, code, message string) {
	RespondWithError(c, statusCode, NewAPIError(code, message))
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	Respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	Respond(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Respond(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	Respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message)
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	Respond(c, http.StatusConflict, ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 response
func UnprocessableEntity(c *gin.Context, code, message string) {
	Respond(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Respond(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	Respond(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}
