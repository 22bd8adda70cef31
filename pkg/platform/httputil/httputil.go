// Package httputil holds the JSON response helpers shared by every handler.
// Handlers never set statuses or marshal error bodies themselves; they hand
// a coded error to WriteError and the mapping lives here once.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "wellfile/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// errorBody is the wire shape for error responses. Description is omitted
// for internal-class codes so infrastructure detail never leaks to clients.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a coded error onto an HTTP status and JSON body.
// Uncoded errors are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := errorBody{Error: string(code)}
	if !hidesDescription(code) {
		body.ErrorDescription = dErrors.MessageOf(err)
	}

	WriteJSON(w, statusFor(code), body)
}

// WriteErrorStatus behaves like WriteError but forces the HTTP status,
// for the rare handler that needs a non-default mapping.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	code := dErrors.CodeOf(err)

	body := errorBody{Error: string(code)}
	if !hidesDescription(code) {
		body.ErrorDescription = dErrors.MessageOf(err)
	}

	WriteJSON(w, status, body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		// CodeInternal, CodeConstraint, CodeInvariantViolation, uncoded.
		return http.StatusInternalServerError
	}
}

// hidesDescription reports whether the code's message must be withheld from
// the response body.
func hidesDescription(code dErrors.Code) bool {
	switch code {
	case dErrors.CodeInternal, dErrors.CodeConstraint, dErrors.CodeInvariantViolation:
		return true
	default:
		return false
	}
}
