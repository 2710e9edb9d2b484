package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/engine"
	"github.com/go-chi/chi/v5/middleware"
)

// Stable error codes returned in {"error": code} bodies.
const (
	codeInvalidInput          = "invalid_input"
	codeInvalidCredentials    = "invalid_credentials"
	codeUserExists            = "user_exists"
	codeUnauthorized          = "unauthorized"
	codeForbidden             = "forbidden"
	codeMissingEngineURL      = "missing_engine_url"
	codeInvalidEngineResponse = "invalid_engine_response"
	codeInternal              = "internal_error"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// writeServiceError maps service errors to a status and a stable code.
// Anything unrecognised is logged with the request id and answered with a
// generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	var upstream *engine.UpstreamError

	switch {
	case errors.As(err, &upstream):
		status := upstream.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeError(w, status, upstream.Body)
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, codeInvalidInput)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials)
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, codeUserExists)
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized)
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden)
	case errors.Is(err, common.ErrMisconfigured):
		logger.Error(r.Context(), "engine url is not configured", "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, codeMissingEngineURL)
	case errors.Is(err, common.ErrInvalidResponse):
		writeError(w, http.StatusBadGateway, codeInvalidEngineResponse)
	default:
		logger.Error(r.Context(), "request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal)
	}
}
