// Package httperr defines errors that carry an HTTP status and surface it
// to GraphQL clients through error extensions.
package httperr

import (
	"errors"
	"net/http"
	"strings"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Extensions satisfies the graphql-go ExtendedError interface.
func (e *HTTPError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":   e.Code,
		"status": e.Status,
	}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

func New(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPError{
		Code:    codeFromStatus(status),
		Message: message,
		Status:  status,
	}
}

func BadRequest(message string, fields ...FieldError) *HTTPError {
	err := New(http.StatusBadRequest, message)
	err.Fields = fields
	return err
}

func Unauthorized(message string) *HTTPError {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *HTTPError {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *HTTPError {
	return New(http.StatusNotFound, message)
}

// Internal never exposes the underlying cause.
func Internal() *HTTPError {
	return New(http.StatusInternalServerError, "")
}

// As returns the HTTPError in err's chain, if any.
func As(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func codeFromStatus(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
