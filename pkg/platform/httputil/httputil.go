package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	dErrors "obfuscator/pkg/domain-errors"
	"obfuscator/pkg/platform/sentinel"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with status. Encoding failures are ignored because the
// status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes an ErrorResponse. Internal
// and upstream failures never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	resp := ErrorResponse{Error: string(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Description()
		}
	}
	WriteJSON(w, status, resp)
}

// StatusFor returns the HTTP status and public code for err.
func StatusFor(err error) (int, dErrors.Code) {
	switch code := dErrors.CodeOf(err); code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest, code
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized, code
	case dErrors.CodeNotFound:
		return http.StatusNotFound, code
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout, code
	case dErrors.CodeInternal:
		return http.StatusInternalServerError, code
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dErrors.CodeTimeout
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, dErrors.CodeNotFound
	case errors.Is(err, sentinel.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}
