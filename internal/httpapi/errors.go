package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"llamabridge/internal/resource"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case resource.IsNotFound(err):
		return http.StatusNotFound
	case session.IsNotLoaded(err), session.IsAlreadyLoaded(err), session.IsUnloading(err):
		return http.StatusConflict
	case session.IsBusy(err):
		return http.StatusTooManyRequests
	case session.IsDependencyUnavailable(err), session.IsClosed(err), resource.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case session.IsLoadFailure(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeError maps err and writes it, counting 429s as backpressure.
func writeError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("generation")
	}
	writeJSONError(w, status, err.Error())
	return status
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
