package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Vault returns a stored record.
func (r *Registry) Vault(ctx context.Context, id uint64) (*models.Vault, error) {
	return r.loadVault(ctx, id)
}

// VaultsOf lists the records created by the caller, ordered by id.
func (r *Registry) VaultsOf(ctx context.Context) ([]models.Vault, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	vaults, err := r.vaults.ListVaultsByOriginator(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list vaults of %s: %w", caller, err)
	}
	return vaults, nil
}

// Height returns the current host height.
func (r *Registry) Height(ctx context.Context) (uint64, error) {
	return r.host.CurrentHeight(ctx)
}

// Grant returns the grant held by grantee on a record and whether it is still active.
// Only the originator and the grantee itself may look a grant up.
func (r *Registry) Grant(ctx context.Context, id uint64, grantee models.Principal) (*models.GrantView, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	v, err := r.loadVault(ctx, id)
	if err != nil {
		return nil, err
	}
	if !OwnedBy(v, caller) && caller != grantee {
		return nil, ErrUnauthorized
	}
	g, err := r.grants.GetGrant(ctx, id, grantee)
	if err != nil {
		if errors.Is(err, repository.ErrGrantNotFound) {
			return nil, fmt.Errorf("vault %d, grantee %q: %w", id, grantee, ErrGrantNotFound)
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}
	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return nil, err
	}
	return &models.GrantView{AccessGrant: *g, Active: g.ActiveAt(height), Height: height}, nil
}

// Grants lists every grant on a record. Only the originator may list them.
func (r *Registry) Grants(ctx context.Context, id uint64) ([]models.GrantView, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	v, err := r.loadVault(ctx, id)
	if err != nil {
		return nil, err
	}
	if !OwnedBy(v, caller) {
		return nil, ErrUnauthorized
	}
	grants, err := r.grants.ListGrants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list grants of vault %d: %w", id, err)
	}
	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.GrantView, 0, len(grants))
	for i := range grants {
		views = append(views, models.GrantView{
			AccessGrant: grants[i],
			Active:      grants[i].ActiveAt(height),
			Height:      height,
		})
	}
	return views, nil
}

// CanRead reports whether the caller originated the record or holds an active grant on it.
// Register, Update and Delegate never consult grants; only content reads do.
func (r *Registry) CanRead(ctx context.Context, id uint64) (bool, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return false, err
	}
	v, err := r.loadVault(ctx, id)
	if err != nil {
		return false, err
	}
	if OwnedBy(v, caller) {
		return true, nil
	}
	g, err := r.grants.GetGrant(ctx, id, caller)
	if err != nil {
		if errors.Is(err, repository.ErrGrantNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load grant: %w", err)
	}
	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return false, err
	}
	return g.ActiveAt(height), nil
}

// Authorize fails with ErrUnauthorized unless the caller originated the record.
func (r *Registry) Authorize(ctx context.Context, id uint64) (*models.Vault, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	v, err := r.loadVault(ctx, id)
	if err != nil {
		return nil, err
	}
	if !OwnedBy(v, caller) {
		return nil, ErrUnauthorized
	}
	return v, nil
}
