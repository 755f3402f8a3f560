package handlers

import (
	"context"
	"net/http"

	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// VaultRegistry is the registry surface the HTTP layer drives.
type VaultRegistry interface {
	Register(ctx context.Context, in registry.RegisterInput) (uint64, error)
	Update(ctx context.Context, id uint64, in registry.UpdateInput) (bool, error)
	Delegate(ctx context.Context, id uint64, in registry.DelegateInput) (bool, error)
	Vault(ctx context.Context, id uint64) (*models.Vault, error)
	VaultsOf(ctx context.Context) ([]models.Vault, error)
	Grant(ctx context.Context, id uint64, grantee models.Principal) (*models.GrantView, error)
	Grants(ctx context.Context, id uint64) ([]models.GrantView, error)
	Height(ctx context.Context) (uint64, error)
}

// RegistryHandler serves vault records and their grants.
type RegistryHandler struct {
	reg VaultRegistry
}

// NewRegistryHandler creates a RegistryHandler.
func NewRegistryHandler(reg VaultRegistry) *RegistryHandler {
	return &RegistryHandler{reg: reg}
}

// Height reports the current block height.
func (h *RegistryHandler) Height(w http.ResponseWriter, r *http.Request) {
	height, err := h.reg.Height(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.HeightResponse{Height: height})
}

// Register creates a record owned by the caller.
func (h *RegistryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVaultRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.reg.Register(r.Context(), registry.RegisterInput{
		Title:          req.Title,
		Fingerprint:    req.Fingerprint,
		Summary:        req.Summary,
		Classification: req.Classification,
		Labels:         req.Labels,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.RegisterVaultResponse{VaultID: id})
}

// Update rewrites the content fields of a record.
func (h *RegistryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	var req models.UpdateVaultRequest
	if !decode(w, r, &req) {
		return
	}
	done, err := h.reg.Update(r.Context(), id, registry.UpdateInput{
		Title:       req.Title,
		Fingerprint: req.Fingerprint,
		Summary:     req.Summary,
		Labels:      req.Labels,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OKResponse{OK: done})
}

// Delegate writes a grant on a record.
func (h *RegistryHandler) Delegate(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	var req models.DelegateRequest
	if !decode(w, r, &req) {
		return
	}
	done, err := h.reg.Delegate(r.Context(), id, registry.DelegateInput{
		Target:    req.Grantee,
		Tier:      req.Tier,
		Duration:  req.Duration,
		CanModify: req.CanModify,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OKResponse{OK: done})
}

// Show returns one record.
func (h *RegistryHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	v, err := h.reg.Vault(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// List returns the caller's records.
func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.reg.VaultsOf(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vaults)
}

// Grant returns the grant held by {grantee}.
func (h *RegistryHandler) Grant(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	grantee, err := pathParam(r, "grantee")
	if err != nil || grantee == "" {
		badRequest(w, "invalid grantee")
		return
	}
	view, err := h.reg.Grant(r.Context(), id, models.Principal(grantee))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Grants lists every grant on a record.
func (h *RegistryHandler) Grants(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(r)
	if !ok {
		badRequest(w, "invalid vault id")
		return
	}
	views, err := h.reg.Grants(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
