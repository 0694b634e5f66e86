package apperr

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Invalid("bad date"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("duplicate email"), http.StatusConflict},
		{Internal("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status(), tt.err.Error())
	}
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(Forbidden("not yours"))
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, "forbidden", body["code"])
	assert.Equal(t, "not yours", body["error"])
}
