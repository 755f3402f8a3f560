package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/florancealade/zephyryx-storage-keep/internal/services"
)

// ContentHandler moves vault content blobs.
type ContentHandler struct {
	service services.ContentService
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(s services.ContentService) *ContentHandler {
	return &ContentHandler{service: s}
}

// Upload stores the request body as the content of a vault.
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	if err := h.service.Upload(r.Context(), id, r.Body, r.Header.Get("Content-Type")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download streams the content of a vault.
func (h *ContentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	rc, v, err := h.service.Download(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Vault-Fingerprint", v.Fingerprint)
	w.Header().Set("X-Vault-Modified-At", strconv.FormatUint(v.ModifiedAt, 10))
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, rc); err != nil {
		slog.ErrorContext(r.Context(), "[ContentHandler] stream failed", "vault_id", id, "error", err)
	}
}
