package models

// Principal is an opaque, authenticated identity supplied by the host.
type Principal string

// Vault is a registry record describing a piece of content by fingerprint.
// ID, Originator and CreatedAt never change after registration.
type Vault struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Originator     Principal `json:"originator"`
	Fingerprint    string    `json:"fingerprint"`
	Summary        string    `json:"summary"`
	CreatedAt      uint64    `json:"created_at"`
	ModifiedAt     uint64    `json:"modified_at"`
	Classification string    `json:"classification"`
	Labels         []string  `json:"labels"`
}

// Clone returns a deep copy so callers cannot alias stored label slices.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	c := *v
	if v.Labels != nil {
		c.Labels = append([]string(nil), v.Labels...)
	}
	return &c
}
