package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

type grantKey struct {
	vaultID uint64
	grantee models.Principal
}

// MemoryStore keeps every map in process memory. It implements VaultRepository,
// GrantRepository and UserRepository and is safe for concurrent use.
// Values are copied on the way in and out so callers never alias stored state.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    uint64
	vaults map[uint64]*models.Vault
	grants map[grantKey]models.AccessGrant
	users  map[string]models.User
	userID int64
}

// NewMemoryStore returns an empty store with the sequence at 0.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vaults: make(map[uint64]*models.Vault),
		grants: make(map[grantKey]models.AccessGrant),
		users:  make(map[string]models.User),
	}
}

var (
	_ VaultRepository = (*MemoryStore)(nil)
	_ GrantRepository = (*MemoryStore)(nil)
	_ UserRepository  = (*MemoryStore)(nil)
)

func (m *MemoryStore) Sequence(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq, nil
}

func (m *MemoryStore) GetVault(_ context.Context, id uint64) (*models.Vault, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vaults[id]
	if !ok {
		return nil, ErrVaultNotFound
	}
	return v.Clone(), nil
}

func (m *MemoryStore) InsertVault(_ context.Context, v *models.Vault) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID != m.seq+1 {
		return ErrSequenceConflict
	}
	m.vaults[v.ID] = v.Clone()
	m.seq = v.ID
	return nil
}

func (m *MemoryStore) UpdateVault(_ context.Context, v *models.Vault) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vaults[v.ID]; !ok {
		return ErrVaultNotFound
	}
	m.vaults[v.ID] = v.Clone()
	return nil
}

func (m *MemoryStore) ListVaultsByOriginator(_ context.Context, originator models.Principal) ([]models.Vault, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]models.Vault, 0)
	for _, v := range m.vaults {
		if v.Originator == originator {
			list = append(list, *v.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *MemoryStore) GetGrant(_ context.Context, vaultID uint64, grantee models.Principal) (*models.AccessGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grants[grantKey{vaultID: vaultID, grantee: grantee}]
	if !ok {
		return nil, ErrGrantNotFound
	}
	return &g, nil
}

func (m *MemoryStore) PutGrant(_ context.Context, g *models.AccessGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants[grantKey{vaultID: g.VaultID, grantee: g.Grantee}] = *g
	return nil
}

func (m *MemoryStore) ListGrants(_ context.Context, vaultID uint64) ([]models.AccessGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]models.AccessGrant, 0)
	for k, g := range m.grants {
		if k.vaultID == vaultID {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Grantee < list[j].Grantee })
	return list, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return 0, ErrUsernameTaken
	}
	m.userID++
	now := time.Now().UTC()
	stored := *user
	stored.ID = m.userID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.users[user.Username] = stored
	return stored.ID, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
