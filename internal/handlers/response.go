package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"notesync/internal/contextutil"
	"notesync/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// OKResponse wraps a successful mutation result.
type OKResponse struct {
	OK      bool `json:"ok"`
	Doc     any  `json:"doc,omitempty"`
	Profile any  `json:"profile,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, ErrorResponse{Error: msg})
}

// MethodNotAllowed writes the JSON 405 body shared by every endpoint.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
	writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
}

// handleServiceError maps service errors to HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(ctx, w, http.StatusBadRequest, validationErr.Message)
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		writeError(ctx, w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		writeError(ctx, w, http.StatusNotFound, "Not found")
		return
	}

	if errors.Is(err, service.ErrConflict) {
		writeError(ctx, w, http.StatusConflict, "Already exists")
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)

	var upstreamErr *service.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeJSON(ctx, w, http.StatusInternalServerError, ErrorResponse{
			Error:   defaultMsg,
			Details: upstreamErr.Err.Error(),
		})
		return
	}

	writeJSON(ctx, w, http.StatusInternalServerError, ErrorResponse{
		Error:   defaultMsg,
		Details: err.Error(),
	})
}
