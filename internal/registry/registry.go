// Package registry implements the vault record registry and its authorization matrix.
//
// Every mutating operation validates all of its inputs first and only then performs a
// single write, so a rejected call never leaves partial state behind.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Host supplies the authenticated caller and the current height for a call.
type Host interface {
	CurrentIdentity(ctx context.Context) (models.Principal, error)
	CurrentHeight(ctx context.Context) (uint64, error)
}

// Registry owns the vault map, the sequence counter and the grant map.
// Mutations are serialized by mu; reads go straight to the repositories.
type Registry struct {
	mu     sync.Mutex
	vaults repository.VaultRepository
	grants repository.GrantRepository
	host   Host
	log    *slog.Logger
}

// New creates a registry over the given repositories.
func New(vaults repository.VaultRepository, grants repository.GrantRepository, host Host, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		vaults: vaults,
		grants: grants,
		host:   host,
		log:    logger,
	}
}

// RegisterInput holds the fields of a new record.
type RegisterInput struct {
	Title          string
	Fingerprint    string
	Summary        string
	Classification string
	Labels         []string
}

// UpdateInput holds the mutable content fields of a record.
type UpdateInput struct {
	Title       string
	Fingerprint string
	Summary     string
	Labels      []string
}

// DelegateInput describes a grant to write for Target.
type DelegateInput struct {
	Target    models.Principal
	Tier      models.Tier
	Duration  uint64
	CanModify bool
}

func validateRegister(in RegisterInput) error {
	switch {
	case !ValidTitle(in.Title):
		return fieldErr(ErrMalformedInput, "title")
	case !ValidFingerprint(in.Fingerprint):
		return fieldErr(ErrMalformedInput, "fingerprint")
	case !ValidSummary(in.Summary):
		return fieldErr(ErrContentValidation, "summary")
	case !ValidClassification(in.Classification):
		return fieldErr(ErrCategoryValidation, "classification")
	case !ValidLabels(in.Labels):
		return fieldErr(ErrContentValidation, "labels")
	}
	if !CrossCheck(in.Title, in.Summary) {
		return fieldErr(ErrMalformedInput, "title/summary")
	}
	return nil
}

// Register stores a new record owned by the caller and returns its id.
// The id is always the previous sequence value plus one.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (uint64, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return 0, err
	}

	if err = validateRegister(in); err != nil {
		r.log.InfoContext(ctx, "[Registry] register rejected", "caller", caller, "kind", Kind(err), "error", err)
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seq, err := r.vaults.Sequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return 0, err
	}

	next := seq + 1
	v := &models.Vault{
		ID:             next,
		Title:          in.Title,
		Originator:     caller,
		Fingerprint:    in.Fingerprint,
		Summary:        in.Summary,
		CreatedAt:      height,
		ModifiedAt:     height,
		Classification: in.Classification,
		Labels:         append([]string(nil), in.Labels...),
	}
	if err = r.vaults.InsertVault(ctx, v); err != nil {
		return 0, fmt.Errorf("insert vault %d: %w", next, err)
	}

	r.log.InfoContext(ctx, "[Registry] vault registered", "vault_id", next, "originator", caller, "height", height)
	return next, nil
}

// Update rewrites the content fields of a record owned by the caller.
// Originator and CreatedAt are carried over from the stored record.
func (r *Registry) Update(ctx context.Context, id uint64, in UpdateInput) (bool, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.checkUpdate(ctx, id, caller, in)
	if err != nil {
		r.log.InfoContext(ctx, "[Registry] update rejected",
			"vault_id", id, "caller", caller, "kind", Kind(err), "error", err)
		return false, err
	}

	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return false, err
	}

	next := stored.Clone()
	next.Title = in.Title
	next.Fingerprint = in.Fingerprint
	next.Summary = in.Summary
	next.Labels = append([]string(nil), in.Labels...)
	next.ModifiedAt = height
	if err = r.vaults.UpdateVault(ctx, next); err != nil {
		return false, fmt.Errorf("update vault %d: %w", id, err)
	}

	r.log.InfoContext(ctx, "[Registry] vault updated", "vault_id", id, "height", height)
	return true, nil
}

func (r *Registry) checkUpdate(
	ctx context.Context,
	id uint64,
	caller models.Principal,
	in UpdateInput,
) (*models.Vault, error) {
	stored, err := r.loadVault(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case !OwnedBy(stored, caller):
		return nil, ErrUnauthorized
	case !ValidTitle(in.Title):
		return nil, fieldErr(ErrMalformedInput, "title")
	case !ValidFingerprint(in.Fingerprint):
		return nil, fieldErr(ErrMalformedInput, "fingerprint")
	case !ValidSummary(in.Summary):
		return nil, fieldErr(ErrContentValidation, "summary")
	case !ValidLabels(in.Labels):
		return nil, fieldErr(ErrContentValidation, "labels")
	}
	if err = r.checkRange(ctx, id); err != nil {
		return nil, err
	}
	if !CrossCheck(in.Title, in.Summary) {
		return nil, fieldErr(ErrMalformedInput, "title/summary")
	}
	return stored, nil
}

// Delegate writes or overwrites the grant for in.Target on a record owned by the caller.
// Any earlier grant to the same target is replaced regardless of its tier or expiry.
func (r *Registry) Delegate(ctx context.Context, id uint64, in DelegateInput) (bool, error) {
	caller, err := r.host.CurrentIdentity(ctx)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err = r.checkDelegate(ctx, id, caller, in); err != nil {
		r.log.InfoContext(ctx, "[Registry] delegation rejected",
			"vault_id", id, "caller", caller, "target", in.Target, "kind", Kind(err), "error", err)
		return false, err
	}

	height, err := r.host.CurrentHeight(ctx)
	if err != nil {
		return false, err
	}

	g := &models.AccessGrant{
		VaultID:   id,
		Grantee:   in.Target,
		Tier:      in.Tier,
		GrantedAt: height,
		ExpiresAt: height + in.Duration,
		CanModify: in.CanModify,
	}
	if err = r.grants.PutGrant(ctx, g); err != nil {
		return false, fmt.Errorf("put grant for vault %d: %w", id, err)
	}

	r.log.InfoContext(ctx, "[Registry] access delegated",
		"vault_id", id, "grantee", in.Target, "tier", in.Tier, "expires_at", g.ExpiresAt)
	return true, nil
}

func (r *Registry) checkDelegate(ctx context.Context, id uint64, caller models.Principal, in DelegateInput) error {
	stored, err := r.loadVault(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case !OwnedBy(stored, caller):
		return ErrUnauthorized
	case !TargetNotSelf(caller, in.Target):
		return fieldErr(ErrMalformedInput, "target")
	case !ValidTier(in.Tier):
		return fieldErr(ErrAuthorizationLevel, "tier")
	case !ValidDuration(in.Duration):
		return fieldErr(ErrTemporalBoundary, "duration")
	}
	if err = r.checkRange(ctx, id); err != nil {
		return err
	}
	if !ValidCanModify(in.CanModify) {
		return fieldErr(ErrMalformedInput, "can_modify")
	}
	return nil
}
