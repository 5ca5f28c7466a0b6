package httperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *HTTPError
		status int
		code   string
	}{
		{NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{Forbidden("nope"), http.StatusForbidden, "FORBIDDEN"},
		{BadRequest("bad"), http.StatusBadRequest, "BAD_REQUEST"},
		{Unauthorized("who"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{Internal(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.err.Status)
		assert.Equal(t, c.code, c.err.Code)
		assert.NotEmpty(t, c.err.Error())
	}
	assert.Equal(t, "Internal Server Error", Internal().Message)
}

func TestExtensions(t *testing.T) {
	err := BadRequest("Validation failed", FieldError{Field: "title", Error: "is required"})
	ext := err.Extensions()

	assert.Equal(t, "BAD_REQUEST", ext["code"])
	assert.Equal(t, 400, ext["status"])
	assert.Equal(t, []FieldError{{Field: "title", Error: "is required"}}, ext["fields"])

	_, hasFields := NotFound("x").Extensions()["fields"]
	assert.False(t, hasFields)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("resolve story: %w", Forbidden("denied"))
	httpErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
	assert.Equal(t, "denied", httpErr.Message)
}
