package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// ErrorDetail is the machine-readable code plus a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response. State is attached when
// the client needs the current view to recover (a failed load keeps the
// previous data, for instance).
type ErrorResponse struct {
	Error ErrorDetail    `json:"error"`
	State *service.State `json:"state,omitempty"`
}

// errorStatus maps a domain sentinel to its HTTP status and error code.
// Anything unrecognised is a 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDayNotFound):
		return http.StatusNotFound, "day_not_found"
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity, "index_out_of_range"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, domain.ErrRemoteLoad):
		return http.StatusBadGateway, "remote_load_failure"
	case errors.Is(err, domain.ErrRemoteSave):
		return http.StatusBadGateway, "remote_save_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err as an ErrorResponse. Internal errors are logged and
// their text is not exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, st *service.State) {
	status, code := errorStatus(err)
	msg := unwrapMessage(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}, State: st})
}

// requestError rejects a request before it reaches the service layer
// (malformed body or path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// unwrapMessage strips the "pkg.Type.Method: " call-site prefixes from a
// wrapped error, leaving the sentinel text and its detail.
// e.g. "service.ItineraryService.Apply: day not found: day 9" → "day not found: day 9"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.Split(err.Error(), ": ")
	for len(parts) > 1 && isCallSite(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ": ")
}

// isCallSite reports whether s looks like "pkg.Type.Method" or "pkg.Func".
func isCallSite(s string) bool {
	if strings.ContainsAny(s, " \t") || !strings.Contains(s, ".") {
		return false
	}
	return strings.ToLower(s[:1]) == s[:1]
}
