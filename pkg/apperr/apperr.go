package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Error is the typed error surfaced by every layer of the service. It
// renders as {"status": "...", "statusCode": N, "message": "..."} at
// the HTTP boundary; nothing below the boundary writes a response
// itself.
type Error struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Message    string `json:"message"`

	// Err is the wrapped cause, logged but never sent to clients.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithCause attaches an underlying cause for logging.
func (e *Error) WithCause(err error) *Error {
	return &Error{StatusCode: e.StatusCode, Status: e.Status, Message: e.Message, Err: err}
}

// New builds a typed error with an explicit status code and status
// string, for taxonomies that refine the generic constructors below.
func New(code int, status, format string, args ...interface{}) *Error {
	return &Error{StatusCode: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

func newError(code int, status, format string, args ...interface{}) *Error {
	return New(code, status, format, args...)
}

// Identification: the tenant could not be determined from the request.
func Identification(format string, args ...interface{}) *Error {
	return newError(http.StatusBadRequest, "IDENTIFICATION_ERROR", format, args...)
}

// Validation: malformed input or a password-policy violation.
func Validation(format string, args ...interface{}) *Error {
	return newError(http.StatusBadRequest, "VALIDATION_ERROR", format, args...)
}

// Unauthenticated: missing, invalid or expired credential.
func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(http.StatusUnauthorized, "UNAUTHENTICATED", format, args...)
}

// Forbidden: inactive tenant, role gate, admin-protection violation or
// a tenant-mismatched token.
func Forbidden(format string, args ...interface{}) *Error {
	return newError(http.StatusForbidden, "FORBIDDEN", format, args...)
}

// NotFound: tenant, user or resource absent.
func NotFound(format string, args ...interface{}) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", format, args...)
}

// Configuration: a server-side deployment defect such as missing
// signing key material. Never a client error.
func Configuration(format string, args ...interface{}) *Error {
	return newError(http.StatusInternalServerError, "CONFIGURATION_ERROR", format, args...)
}

// Internal: unexpected failure.
func Internal(format string, args ...interface{}) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", format, args...)
}

// HTTPErrorHandler returns the single boundary handler that translates
// typed errors to JSON responses. Constraint violations from the
// database map to a generic 400 instead of leaking schema detail, and
// error causes are only echoed to clients outside production.
func HTTPErrorHandler(log *zap.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *Error
		switch {
		case errors.As(err, &appErr):
			// already typed
		case errors.Is(err, gorm.ErrRecordNotFound):
			appErr = NotFound("resource not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			appErr = Validation("resource already exists")
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				appErr = newError(he.Code, "HTTP_ERROR", "%v", he.Message)
			} else {
				appErr = Internal("internal server error").WithCause(err)
			}
		}

		if appErr.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Int("status", appErr.StatusCode),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}

		body := echo.Map{
			"status":     appErr.Status,
			"statusCode": appErr.StatusCode,
			"message":    appErr.Message,
		}
		if !production && appErr.Err != nil {
			body["detail"] = appErr.Err.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.StatusCode)
			return
		}
		_ = c.JSON(appErr.StatusCode, body)
	}
}
