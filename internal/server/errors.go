package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// badRequestError reports a malformed request.
type badRequestError string

func (e badRequestError) Error() string { return string(e) }

func errBadRequest(msg string) error { return badRequestError(msg) }

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	SQL   string `json:"sql,omitempty"`
}

// kindOf extends core.ErrorKind with request-level failures.
func kindOf(err error) string {
	var bad badRequestError
	switch {
	case errors.As(err, &bad), errors.Is(err, pipeline.ErrEmptyQuestion):
		return "bad_request"
	default:
		return core.ErrorKind(err)
	}
}

// statusFor maps an error kind to an HTTP status. Client errors are the
// ones a caller can fix without a code change.
func statusFor(kind string) int {
	switch kind {
	case "bad_request", "validation", "not_found", "no_tables":
		return http.StatusBadRequest
	case "locked":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sqlOf returns the SQL an error is about, if any.
func sqlOf(err error) string {
	var (
		validation *core.ValidationError
		execErr    *core.ExecutionError
	)
	switch {
	case errors.As(err, &validation):
		return validation.SQL
	case errors.As(err, &execErr):
		return execErr.SQL
	}
	return ""
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := kindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", kind, "error", err)
	} else {
		logger.Debug("request rejected", "kind", kind, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, SQL: sqlOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
