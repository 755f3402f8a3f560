// Package repository stores vault records, the vault sequence counter, access grants and
// user accounts, in memory or in PostgreSQL.
package repository

import (
	"context"
	"errors"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// VaultRepository is the keyed vault map plus its sequence counter.
type VaultRepository interface {
	// Sequence returns the highest id assigned so far (0 when empty).
	Sequence(ctx context.Context) (uint64, error)
	GetVault(ctx context.Context, id uint64) (*models.Vault, error)
	// InsertVault stores v and advances the sequence to v.ID in one step.
	// It fails with ErrSequenceConflict unless the sequence is v.ID-1.
	InsertVault(ctx context.Context, v *models.Vault) error
	// UpdateVault overwrites the content fields of an existing record.
	UpdateVault(ctx context.Context, v *models.Vault) error
	ListVaultsByOriginator(ctx context.Context, originator models.Principal) ([]models.Vault, error)
}

// GrantRepository is the keyed (vault, grantee) grant map.
type GrantRepository interface {
	GetGrant(ctx context.Context, vaultID uint64, grantee models.Principal) (*models.AccessGrant, error)
	// PutGrant writes g, replacing any grant with the same vault and grantee.
	PutGrant(ctx context.Context, g *models.AccessGrant) error
	ListGrants(ctx context.Context, vaultID uint64) ([]models.AccessGrant, error)
}

// UserRepository stores sign-in accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

var (
	ErrVaultNotFound    = errors.New("vault not found")
	ErrGrantNotFound    = errors.New("grant not found")
	ErrSequenceConflict = errors.New("vault sequence moved concurrently")
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
)
