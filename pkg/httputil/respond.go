// Package httputil centralizes the response envelope so every endpoint is
// indistinguishable by error shape. Success is {ok:true,...}, guard and
// domain failures are {ok:false,code,error?}, validation failures are
// {ok:false,code:"VALIDATION_ERROR",details,correlationId}.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/requestcontext"
)

// FieldError is one field-level violation inside a validation failure. The
// details array always enumerates every violation, not just the first.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type failureEnvelope struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type validationEnvelope struct {
	OK            bool         `json:"ok"`
	Code          string       `json:"code"`
	Details       []FieldError `json:"details"`
	CorrelationID string       `json:"correlationId"`
}

// WriteOK writes a success envelope. payload keys are merged next to ok:true,
// so handlers pass a map (or nil for a bare {"ok":true}).
func WriteOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// WriteError renders a coded error with its mapped status. Internal errors
// leak nothing: the client sees only a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if code == dErrors.CodeInternal {
		writeJSON(w, status, failureEnvelope{OK: false, Error: "Internal server error"})
		return
	}
	writeJSON(w, status, failureEnvelope{
		OK:    false,
		Code:  string(code),
		Error: dErrors.MessageOf(err),
	})
}

// WriteValidation renders the validation envelope, HTTP 400, with the
// per-request correlation ID taken from context.
func WriteValidation(w http.ResponseWriter, r *http.Request, details []FieldError) {
	if details == nil {
		details = []FieldError{}
	}
	writeJSON(w, http.StatusBadRequest, validationEnvelope{
		OK:            false,
		Code:          string(dErrors.CodeValidation),
		Details:       details,
		CorrelationID: requestcontext.RequestID(r.Context()),
	})
}

// WriteUnauthorized renders the 401 contract used by the identity boundary.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, failureEnvelope{
		OK:    false,
		Code:  string(dErrors.CodeUnauthorized),
		Error: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
