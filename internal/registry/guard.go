package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// InAllocatedRange reports whether id was ever handed out by a sequence at seq.
func InAllocatedRange(id, seq uint64) bool {
	return id > 0 && id <= seq
}

// OwnedBy reports whether v exists and was created by who.
func OwnedBy(v *models.Vault, who models.Principal) bool {
	return v != nil && v.Originator == who
}

// Exists reports whether a record with the id is stored.
func (r *Registry) Exists(ctx context.Context, id uint64) (bool, error) {
	v, err := r.loadVault(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return v != nil, nil
}

// IsOwner reports whether who created the record. A missing record is not an error.
func (r *Registry) IsOwner(ctx context.Context, id uint64, who models.Principal) (bool, error) {
	v, err := r.loadVault(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return OwnedBy(v, who), nil
}

// InRange reports whether id is within the allocated sequence.
func (r *Registry) InRange(ctx context.Context, id uint64) (bool, error) {
	seq, err := r.vaults.Sequence(ctx)
	if err != nil {
		return false, fmt.Errorf("read sequence: %w", err)
	}
	return InAllocatedRange(id, seq), nil
}

// loadVault returns ErrNotFound for a missing record and wraps storage failures.
func (r *Registry) loadVault(ctx context.Context, id uint64) (*models.Vault, error) {
	v, err := r.vaults.GetVault(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVaultNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load vault %d: %w", id, err)
	}
	return v, nil
}

// checkRange fails with ErrNotFound when id is outside the allocated sequence.
func (r *Registry) checkRange(ctx context.Context, id uint64) error {
	ok, err := r.InRange(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fieldErr(ErrNotFound, "vault_id")
	}
	return nil
}
