package models

// Tier is the access level of a delegated grant.
type Tier string

const (
	TierObserver      Tier = "observer"
	TierContributor   Tier = "contributor"
	TierAdministrator Tier = "administrator"
)

// AccessGrant is a time-boxed delegation keyed by (VaultID, Grantee).
// Heights come from the host clock; ExpiresAt is always greater than GrantedAt.
type AccessGrant struct {
	VaultID   uint64    `json:"vault_id"`
	Grantee   Principal `json:"grantee"`
	Tier      Tier      `json:"tier"`
	GrantedAt uint64    `json:"granted_at"`
	ExpiresAt uint64    `json:"expires_at"`
	CanModify bool      `json:"can_modify"`
}

// ActiveAt reports whether the grant is still in force at the given height.
// Expired grants stay stored until a later grant to the same grantee replaces them.
func (g *AccessGrant) ActiveAt(height uint64) bool {
	return height < g.ExpiresAt
}
