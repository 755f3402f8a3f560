package models

// RegisterVaultRequest is the body of a registration call.
type RegisterVaultRequest struct {
	Title          string   `json:"title"`
	Fingerprint    string   `json:"fingerprint"`
	Summary        string   `json:"summary"`
	Classification string   `json:"classification"`
	Labels         []string `json:"labels"`
}

// RegisterVaultResponse returns the id allocated to a new record.
type RegisterVaultResponse struct {
	VaultID uint64 `json:"vault_id"`
}

// UpdateVaultRequest carries the mutable content fields of a record.
type UpdateVaultRequest struct {
	Title       string   `json:"title"`
	Fingerprint string   `json:"fingerprint"`
	Summary     string   `json:"summary"`
	Labels      []string `json:"labels"`
}

// DelegateRequest grants Grantee access to a record for Duration heights.
type DelegateRequest struct {
	Grantee   Principal `json:"grantee"`
	Tier      Tier      `json:"tier"`
	Duration  uint64    `json:"duration"`
	CanModify bool      `json:"can_modify"`
}

// GrantView is a stored grant together with its freshness at Height.
type GrantView struct {
	AccessGrant
	Active bool   `json:"active"`
	Height uint64 `json:"height"`
}

// HeightResponse reports the current host height.
type HeightResponse struct {
	Height uint64 `json:"height"`
}

// OKResponse is the success result of a mutating call.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
