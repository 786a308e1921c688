// Package testutil holds small helpers shared by handler-level tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope is the decoded response body of any endpoint.
type Envelope struct {
	OK            bool            `json:"ok"`
	Code          string          `json:"code"`
	Error         string          `json:"error"`
	CorrelationID string          `json:"correlationId"`
	Details       json.RawMessage `json:"details"`
	Raw           map[string]any  `json:"-"`
}

// DoJSON performs a JSON request against the handler and decodes the
// envelope. headers are alternating key, value pairs.
func DoJSON(t *testing.T, handler http.Handler, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	require.Zero(t, len(headers)%2, "headers must be key/value pairs")
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env Envelope
	if rec.Header().Get("Content-Type") == "application/json" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
		env.Raw = map[string]any{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env.Raw))
	}
	return rec, env
}
