package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Error   *ErrorInfo          `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Meta    Meta                `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// ValidationFailed writes a 422 response listing every failing field.
func ValidationFailed(c *gin.Context, verr *ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Success: false,
		Code:    http.StatusUnprocessableEntity,
		Message: verr.First(),
		Error: &ErrorInfo{
			Code:    ErrValidation.Error(),
			Message: "The given data was invalid.",
		},
		Errors: verr.Fields,
		Meta:   newMeta(c),
	})
}

// RespondError maps service errors onto HTTP responses. internalMessage is
// what callers see for anything unexpected; causes are never exposed.
func RespondError(c *gin.Context, err error, internalMessage string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr)
	case errors.Is(err, ErrNotFound):
		Error(c, http.StatusNotFound, ErrNotFound.Error(), "Resource not found.")
	case errors.Is(err, ErrForbidden):
		Error(c, http.StatusForbidden, ErrForbidden.Error(), "You do not own this product to modify this.")
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, ErrInvalidCredentials.Error(), "Invalid credentials.")
	case errors.Is(err, ErrUnauthorized):
		Error(c, http.StatusUnauthorized, ErrUnauthorized.Error(), "Unauthenticated.")
	default:
		Error(c, http.StatusInternalServerError, ErrInternal.Error(), internalMessage)
	}
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
