package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/ridecore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse checks the status and decodes the body into v.
func AssertJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, v any) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code, body: %s", string(body))

	if v != nil {
		require.NoError(t, json.Unmarshal(body, v), "failed to unmarshal response: %s", string(body))
	}
}

// AssertErrorResponse verifies the status and the error code of a JSON
// error body.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedCode domain.ErrorCode) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code, body: %s", string(body))

	var errBody struct {
		Error string           `json:"error"`
		Code  domain.ErrorCode `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &errBody), "error body is not JSON: %s", string(body))
	assert.Equal(t, expectedCode, errBody.Code)
	assert.NotEmpty(t, errBody.Error)
}
