package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Error is an operational error carrying the HTTP status it should be
// reported with. Handlers build these and hand them to Abort instead of
// writing responses inline.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(message string, code int) *Error {
	return &Error{Code: code, Message: message}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Message: message}
}

func Internal(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: fmt.Sprintf(format, args...)}
}

// Status returns the HTTP status for err. Duplicate-key rejections from the
// store surface as 400 (unique-field violation); anything unrecognized is a 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	if mongo.IsDuplicateKeyError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Message returns the user-visible message for err. Internal store errors are
// not leaked verbatim.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	if mongo.IsDuplicateKeyError(err) {
		return "Duplicate value for a unique field"
	}
	return "Internal server error"
}

// Abort is the centralized error responder: every handler error funnels
// through here so responses always carry a status code and a message.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(Status(err), gin.H{"error": Message(err)})
}
