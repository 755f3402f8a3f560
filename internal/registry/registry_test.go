package registry_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// fakeHost serves a fixed caller per context and a settable height.
type fakeHost struct {
	mu     sync.Mutex
	height uint64
}

type callerKey struct{}

func as(p models.Principal) context.Context {
	return context.WithValue(context.Background(), callerKey{}, p)
}

func (h *fakeHost) CurrentIdentity(ctx context.Context) (models.Principal, error) {
	p, ok := ctx.Value(callerKey{}).(models.Principal)
	if !ok {
		return "", errors.New("no caller")
	}
	return p, nil
}

func (h *fakeHost) CurrentHeight(context.Context) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height, nil
}

func (h *fakeHost) set(height uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.height = height
}

func setup(t *testing.T) (*registry.Registry, *repository.MemoryStore, *fakeHost) {
	t.Helper()
	store := repository.NewMemoryStore()
	host := &fakeHost{height: 100}
	return registry.New(store, store, host, nil), store, host
}

var h1 = strings.Repeat("a", 64)

func validRegister() registry.RegisterInput {
	return registry.RegisterInput{
		Title:          "Doc A",
		Fingerprint:    h1,
		Summary:        "summary",
		Classification: "public",
		Labels:         []string{"x"},
	}
}

func validUpdate() registry.UpdateInput {
	return registry.UpdateInput{
		Title:       "Doc A v2",
		Fingerprint: strings.Repeat("b", 64),
		Summary:     "revised",
		Labels:      []string{"x", "y"},
	}
}

func TestRegistry_Scenario(t *testing.T) {
	reg, store, host := setup(t)
	ctx := context.Background()
	alice, bob := as("alice"), as("bob")

	id, err := reg.Register(alice, validRegister())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	in := validRegister()
	in.Title = "Doc B"
	id, err = reg.Register(alice, in)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	host.set(110)
	ok, err := reg.Update(alice, 1, validUpdate())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.Update(bob, 1, validUpdate())
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	assert.False(t, ok)

	ok, err = reg.Delegate(alice, 1, registry.DelegateInput{
		Target: "bob", Tier: models.TierContributor, Duration: 100, CanModify: true,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	g, err := store.GetGrant(ctx, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.AccessGrant{
		VaultID: 1, Grantee: "bob", Tier: models.TierContributor,
		GrantedAt: 110, ExpiresAt: 210, CanModify: true,
	}, *g)
}

func TestRegistry_RegisterSequence(t *testing.T) {
	reg, store, _ := setup(t)
	ctx := context.Background()

	for want := uint64(1); want <= 5; want++ {
		before, err := store.Sequence(ctx)
		require.NoError(t, err)

		id, err := reg.Register(as("alice"), validRegister())
		require.NoError(t, err)
		assert.Equal(t, before+1, id)

		after, err := store.Sequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, after)
	}
}

func TestRegistry_RegisterConcurrent(t *testing.T) {
	reg, store, _ := setup(t)

	const n = 20
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := reg.Register(as("alice"), validRegister())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d reused", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	seq, err := store.Sequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(n), seq)
}

func TestRegistry_RegisterStoresCallerAndHeight(t *testing.T) {
	reg, store, host := setup(t)
	host.set(77)

	id, err := reg.Register(as("carol"), validRegister())
	require.NoError(t, err)

	v, err := store.GetVault(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.Principal("carol"), v.Originator)
	assert.Equal(t, uint64(77), v.CreatedAt)
	assert.Equal(t, uint64(77), v.ModifiedAt)
	assert.Equal(t, "public", v.Classification)
}

func TestRegistry_RegisterRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *registry.RegisterInput)
		want   error
	}{
		{"empty title", func(in *registry.RegisterInput) { in.Title = "" }, registry.ErrMalformedInput},
		{"long title", func(in *registry.RegisterInput) { in.Title = strings.Repeat("t", 51) }, registry.ErrMalformedInput},
		{"fingerprint 63", func(in *registry.RegisterInput) { in.Fingerprint = h1[:63] }, registry.ErrMalformedInput},
		{"fingerprint 65", func(in *registry.RegisterInput) { in.Fingerprint = h1 + "a" }, registry.ErrMalformedInput},
		{"empty summary", func(in *registry.RegisterInput) { in.Summary = "" }, registry.ErrContentValidation},
		{
			"long summary",
			func(in *registry.RegisterInput) { in.Summary = strings.Repeat("s", 201) },
			registry.ErrContentValidation,
		},
		{"empty classification", func(in *registry.RegisterInput) { in.Classification = "" }, registry.ErrCategoryValidation},
		{
			"long classification",
			func(in *registry.RegisterInput) { in.Classification = strings.Repeat("c", 21) },
			registry.ErrCategoryValidation,
		},
		{"no labels", func(in *registry.RegisterInput) { in.Labels = nil }, registry.ErrContentValidation},
		{
			"six labels",
			func(in *registry.RegisterInput) { in.Labels = []string{"a", "b", "c", "d", "e", "f"} },
			registry.ErrContentValidation,
		},
		{
			"label 31",
			func(in *registry.RegisterInput) { in.Labels = []string{strings.Repeat("l", 31)} },
			registry.ErrContentValidation,
		},
		{
			"title checked before summary",
			func(in *registry.RegisterInput) { in.Title, in.Summary = "", "" },
			registry.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, store, _ := setup(t)
			in := validRegister()
			tt.mutate(&in)

			id, err := reg.Register(as("alice"), in)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, id)

			seq, err := store.Sequence(context.Background())
			require.NoError(t, err)
			assert.Zero(t, seq, "counter must not move on failure")
		})
	}
}

func TestRegistry_RegisterAcceptsBoundaries(t *testing.T) {
	reg, _, _ := setup(t)
	in := registry.RegisterInput{
		Title:          strings.Repeat("t", 50),
		Fingerprint:    h1,
		Summary:        strings.Repeat("s", 200),
		Classification: strings.Repeat("c", 20),
		Labels:         []string{"a", "b", "c", "d", strings.Repeat("l", 30)},
	}
	id, err := reg.Register(as("alice"), in)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestRegistry_UpdateKeepsOriginAndCreation(t *testing.T) {
	reg, store, host := setup(t)
	ctx := context.Background()

	id, err := reg.Register(as("alice"), validRegister())
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		host.set(100 + i*10)
		ok, err := reg.Update(as("alice"), id, validUpdate())
		require.NoError(t, err)
		require.True(t, ok)

		v, err := store.GetVault(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.Principal("alice"), v.Originator)
		assert.Equal(t, uint64(100), v.CreatedAt)
		assert.Equal(t, 100+i*10, v.ModifiedAt)
		assert.Equal(t, "Doc A v2", v.Title)
		assert.Equal(t, []string{"x", "y"}, v.Labels)
		assert.Equal(t, "public", v.Classification)
	}
}

func TestRegistry_UpdateRejects(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Principal
		id     uint64
		mutate func(in *registry.UpdateInput)
		want   error
	}{
		{name: "missing vault", caller: "alice", id: 9, want: registry.ErrNotFound},
		{name: "zero id", caller: "alice", id: 0, want: registry.ErrNotFound},
		{name: "not owner", caller: "bob", id: 1, want: registry.ErrUnauthorized},
		{
			name: "not owner with bad input", caller: "bob", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Title = "" },
			want:   registry.ErrUnauthorized,
		},
		{
			name: "empty title", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Title = "" },
			want:   registry.ErrMalformedInput,
		},
		{
			name: "fingerprint 63", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Fingerprint = h1[:63] },
			want:   registry.ErrMalformedInput,
		},
		{
			name: "long summary", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Summary = strings.Repeat("s", 201) },
			want:   registry.ErrContentValidation,
		},
		{
			name: "empty label", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Labels = []string{""} },
			want:   registry.ErrContentValidation,
		},
		{
			name: "fingerprint 65", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Fingerprint = h1 + "a" },
			want:   registry.ErrMalformedInput,
		},
		{
			name: "no labels", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Labels = nil },
			want:   registry.ErrContentValidation,
		},
		{
			name: "six labels", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Labels = []string{"a", "b", "c", "d", "e", "f"} },
			want:   registry.ErrContentValidation,
		},
		{
			name: "label 31", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Labels = []string{strings.Repeat("l", 31)} },
			want:   registry.ErrContentValidation,
		},
		{
			name: "long title", caller: "alice", id: 1,
			mutate: func(in *registry.UpdateInput) { in.Title = strings.Repeat("t", 51) },
			want:   registry.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, store, _ := setup(t)
			_, err := reg.Register(as("alice"), validRegister())
			require.NoError(t, err)

			in := validUpdate()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			ok, err := reg.Update(as(tt.caller), tt.id, in)
			require.ErrorIs(t, err, tt.want)
			assert.False(t, ok)

			v, err := store.GetVault(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, "Doc A", v.Title, "record must be untouched")
		})
	}
}

func TestRegistry_Delegate(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Principal
		id     uint64
		in     registry.DelegateInput
		want   error
	}{
		{
			name: "max duration", caller: "alice", id: 1,
			in: registry.DelegateInput{Target: "bob", Tier: models.TierObserver, Duration: 52560},
		},
		{
			name: "min duration", caller: "alice", id: 1,
			in: registry.DelegateInput{Target: "bob", Tier: models.TierAdministrator, Duration: 1},
		},
		{
			name: "zero duration", caller: "alice", id: 1,
			in:   registry.DelegateInput{Target: "bob", Tier: models.TierObserver, Duration: 0},
			want: registry.ErrTemporalBoundary,
		},
		{
			name: "duration over max", caller: "alice", id: 1,
			in:   registry.DelegateInput{Target: "bob", Tier: models.TierObserver, Duration: 52561},
			want: registry.ErrTemporalBoundary,
		},
		{
			name: "self target", caller: "alice", id: 1,
			in:   registry.DelegateInput{Target: "alice", Tier: models.TierObserver, Duration: 10},
			want: registry.ErrMalformedInput,
		},
		{
			name: "empty target", caller: "alice", id: 1,
			in:   registry.DelegateInput{Target: "", Tier: models.TierObserver, Duration: 10},
			want: registry.ErrMalformedInput,
		},
		{
			name: "unknown tier", caller: "alice", id: 1,
			in:   registry.DelegateInput{Target: "bob", Tier: "write", Duration: 10},
			want: registry.ErrAuthorizationLevel,
		},
		{
			name: "not owner", caller: "bob", id: 1,
			in:   registry.DelegateInput{Target: "carol", Tier: models.TierObserver, Duration: 10},
			want: registry.ErrUnauthorized,
		},
		{
			name: "missing vault", caller: "alice", id: 7,
			in:   registry.DelegateInput{Target: "bob", Tier: models.TierObserver, Duration: 10},
			want: registry.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, store, _ := setup(t)
			_, err := reg.Register(as("alice"), validRegister())
			require.NoError(t, err)

			ok, err := reg.Delegate(as(tt.caller), tt.id, tt.in)
			grants, listErr := store.ListGrants(context.Background(), tt.id)
			require.NoError(t, listErr)

			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.False(t, ok)
				assert.Empty(t, grants, "no grant on failure")
				return
			}
			require.NoError(t, err)
			assert.True(t, ok)
			require.Len(t, grants, 1)
			assert.Equal(t, 100+tt.in.Duration, grants[0].ExpiresAt)
		})
	}
}

func TestRegistry_DelegateOverwrites(t *testing.T) {
	reg, store, host := setup(t)
	_, err := reg.Register(as("alice"), validRegister())
	require.NoError(t, err)

	_, err = reg.Delegate(as("alice"), 1, registry.DelegateInput{
		Target: "bob", Tier: models.TierAdministrator, Duration: 1000, CanModify: true,
	})
	require.NoError(t, err)

	host.set(150)
	_, err = reg.Delegate(as("alice"), 1, registry.DelegateInput{
		Target: "bob", Tier: models.TierObserver, Duration: 5,
	})
	require.NoError(t, err)

	g, err := store.GetGrant(context.Background(), 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.TierObserver, g.Tier)
	assert.Equal(t, uint64(155), g.ExpiresAt)
	assert.False(t, g.CanModify)
}

func TestRegistry_GrantsDoNotAuthorizeMutation(t *testing.T) {
	reg, _, _ := setup(t)
	_, err := reg.Register(as("alice"), validRegister())
	require.NoError(t, err)
	_, err = reg.Delegate(as("alice"), 1, registry.DelegateInput{
		Target: "bob", Tier: models.TierAdministrator, Duration: 100, CanModify: true,
	})
	require.NoError(t, err)

	_, err = reg.Update(as("bob"), 1, validUpdate())
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	_, err = reg.Delegate(as("bob"), 1, registry.DelegateInput{
		Target: "carol", Tier: models.TierObserver, Duration: 10,
	})
	require.ErrorIs(t, err, registry.ErrUnauthorized)
}

func TestRegistry_NoIdentity(t *testing.T) {
	reg, store, _ := setup(t)
	_, err := reg.Register(context.Background(), validRegister())
	require.Error(t, err)
	seq, err := store.Sequence(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}

type failingInsert struct {
	*repository.MemoryStore
}

func (f failingInsert) InsertVault(context.Context, *models.Vault) error {
	return errors.New("disk full")
}

func TestRegistry_RegisterStorageFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	reg := registry.New(failingInsert{store}, store, &fakeHost{}, nil)

	_, err := reg.Register(as("alice"), validRegister())
	require.Error(t, err)
	assert.Equal(t, "internal", registry.Kind(err))
}

// laggingSequence reports a counter behind the stored records.
type laggingSequence struct {
	*repository.MemoryStore
	seq uint64
}

func (l laggingSequence) Sequence(context.Context) (uint64, error) {
	return l.seq, nil
}

func TestRegistry_RangeGuardOnMutations(t *testing.T) {
	store := repository.NewMemoryStore()
	host := &fakeHost{height: 100}
	_, err := registry.New(store, store, host, nil).Register(as("alice"), validRegister())
	require.NoError(t, err)

	reg := registry.New(laggingSequence{MemoryStore: store}, store, host, nil)
	ctx := context.Background()

	t.Run("update", func(t *testing.T) {
		ok, err := reg.Update(as("alice"), 1, validUpdate())
		require.ErrorIs(t, err, registry.ErrNotFound)
		assert.False(t, ok)

		var fe *registry.FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "vault_id", fe.Field)

		v, err := store.GetVault(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Doc A", v.Title)
	})

	t.Run("update checks fields first", func(t *testing.T) {
		in := validUpdate()
		in.Summary = ""
		_, err := reg.Update(as("alice"), 1, in)
		require.ErrorIs(t, err, registry.ErrContentValidation)
	})

	t.Run("delegate", func(t *testing.T) {
		ok, err := reg.Delegate(as("alice"), 1, registry.DelegateInput{
			Target: "bob", Tier: models.TierObserver, Duration: 10,
		})
		require.ErrorIs(t, err, registry.ErrNotFound)
		assert.False(t, ok)

		_, err = store.GetGrant(ctx, 1, "bob")
		require.ErrorIs(t, err, repository.ErrGrantNotFound)
	})

	t.Run("delegate checks fields first", func(t *testing.T) {
		_, err := reg.Delegate(as("alice"), 1, registry.DelegateInput{
			Target: "bob", Tier: models.TierObserver, Duration: 0,
		})
		require.ErrorIs(t, err, registry.ErrTemporalBoundary)
	})
}
