// Package handlers exposes the registry, accounts and vault content over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/florancealade/zephyryx-storage-keep/internal/ledger"
	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/internal/services"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("[Handlers] encode response", "error", err)
	}
}

// errorStatus maps a service or registry error to its HTTP status and wire kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrWeakPassword):
		return http.StatusBadRequest, "malformed_input"
	case errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict, "username_taken"
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, ledger.ErrNoIdentity):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrFingerprintMismatch):
		return http.StatusUnprocessableEntity, "fingerprint_mismatch"
	case errors.Is(err, services.ErrContentTooLarge):
		return http.StatusRequestEntityTooLarge, "content_too_large"
	case errors.Is(err, services.ErrContentNotFound):
		return http.StatusNotFound, "not_found"
	}

	kind := registry.Kind(err)
	switch kind {
	case "malformed_input":
		return http.StatusBadRequest, kind
	case "unauthorized":
		return http.StatusForbidden, kind
	case "not_found":
		return http.StatusNotFound, kind
	case "content_validation_failure", "category_validation_failure",
		"temporal_boundary_violation", "authorization_level_mismatch":
		return http.StatusUnprocessableEntity, kind
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "[Handlers] request failed", "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg, Kind: kind})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg, Kind: "malformed_input"})
}

// pathParam returns a decoded path parameter. chi matches on RawPath when the
// request carries one, so an escaped "/" in a principal arrives still escaped.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// vaultID parses the {vaultID} path parameter. Zero is never allocated.
func vaultID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "vaultID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		slog.DebugContext(r.Context(), "[Handlers] bad request body", "path", r.URL.Path, "error", err)
		badRequest(w, "invalid request body")
		return false
	}
	return true
}
