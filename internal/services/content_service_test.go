package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/florancealade/zephyryx-storage-keep/internal/ledger"
	"github.com/florancealade/zephyryx-storage-keep/internal/middleware"
	"github.com/florancealade/zephyryx-storage-keep/internal/mocks"
	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/internal/services"
	"github.com/florancealade/zephyryx-storage-keep/internal/storage"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

const payload = "top secret payload"

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func as(p models.Principal) context.Context {
	return middleware.WithPrincipal(context.Background(), p)
}

type contentFixture struct {
	reg   *registry.Registry
	clock *ledger.ManualClock
	files *storage.MemoryStorage
	svc   services.ContentService
}

func newContentFixture(t *testing.T, maxBytes int64) *contentFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := ledger.NewManualClock(10)
	reg := registry.New(store, store, ledger.NewRequestHost(clock), nil)
	files := storage.NewMemoryStorage()

	_, err := reg.Register(as("alice"), registry.RegisterInput{
		Title:          "Doc",
		Fingerprint:    strings.ToUpper(digest(payload)),
		Summary:        "summary",
		Classification: "public",
		Labels:         []string{"x"},
	})
	require.NoError(t, err)

	return &contentFixture{
		reg:   reg,
		clock: clock,
		files: files,
		svc:   services.NewContentService(reg, files, maxBytes),
	}
}

func TestContentService_Upload(t *testing.T) {
	tests := []struct {
		name     string
		caller   models.Principal
		id       uint64
		body     string
		maxBytes int64
		wantErr  error
	}{
		{name: "owner with matching body", caller: "alice", id: 1, body: payload, maxBytes: 1024},
		{name: "not owner", caller: "bob", id: 1, body: payload, maxBytes: 1024, wantErr: registry.ErrUnauthorized},
		{name: "missing vault", caller: "alice", id: 5, body: payload, maxBytes: 1024, wantErr: registry.ErrNotFound},
		{
			name: "digest mismatch", caller: "alice", id: 1, body: "other", maxBytes: 1024,
			wantErr: services.ErrFingerprintMismatch,
		},
		{
			name: "too large", caller: "alice", id: 1, body: payload, maxBytes: int64(len(payload) - 1),
			wantErr: services.ErrContentTooLarge,
		},
		{name: "exactly the limit", caller: "alice", id: 1, body: payload, maxBytes: int64(len(payload))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContentFixture(t, tt.maxBytes)

			err := f.svc.Upload(as(tt.caller), tt.id, strings.NewReader(tt.body), "")
			key := services.ObjectKey(1, digest(payload))
			_, getErr := f.files.DownloadFile(context.Background(), key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, getErr, storage.ErrObjectNotFound)
				return
			}
			require.NoError(t, err)
			require.NoError(t, getErr)
		})
	}
}

func TestContentService_Download(t *testing.T) {
	f := newContentFixture(t, 1024)
	require.NoError(t, f.svc.Upload(as("alice"), 1, strings.NewReader(payload), "text/plain"))
	_, err := f.reg.Delegate(as("alice"), 1, registry.DelegateInput{
		Target: "bob", Tier: models.TierObserver, Duration: 5,
	})
	require.NoError(t, err)

	read := func(t *testing.T, caller models.Principal) (string, error) {
		t.Helper()
		rc, v, err := f.svc.Download(as(caller), 1)
		if err != nil {
			return "", err
		}
		defer rc.Close()
		assert.Equal(t, uint64(1), v.ID)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b), nil
	}

	body, err := read(t, "alice")
	require.NoError(t, err)
	assert.Equal(t, payload, body)

	body, err = read(t, "bob")
	require.NoError(t, err, "active grantee")
	assert.Equal(t, payload, body)

	_, err = read(t, "carol")
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	f.clock.Advance(5)
	_, err = read(t, "bob")
	require.ErrorIs(t, err, registry.ErrUnauthorized, "grant expired")

	_, err = f.reg.Update(as("alice"), 1, registry.UpdateInput{
		Title: "Doc", Fingerprint: digest("new"), Summary: "summary", Labels: []string{"x"},
	})
	require.NoError(t, err)
	_, err = read(t, "alice")
	require.ErrorIs(t, err, services.ErrContentNotFound, "content follows the current fingerprint")
}

func TestContentService_StorageFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := ledger.NewManualClock(1)
	reg := registry.New(store, store, ledger.NewRequestHost(clock), nil)
	_, err := reg.Register(as("alice"), registry.RegisterInput{
		Title: "Doc", Fingerprint: digest(payload), Summary: "s", Classification: "c", Labels: []string{"x"},
	})
	require.NoError(t, err)

	files := new(mocks.FileStorage)
	files.On("UploadFile", mock.Anything, services.ObjectKey(1, digest(payload)), mock.Anything,
		int64(len(payload)), "application/octet-stream").Return(errors.New("bucket gone")).Once()
	files.On("DownloadFile", mock.Anything, services.ObjectKey(1, digest(payload))).
		Return(nil, errors.New("bucket gone")).Once()

	svc := services.NewContentService(reg, files, 1024)
	err = svc.Upload(as("alice"), 1, strings.NewReader(payload), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store content")

	_, _, err = svc.Download(as("alice"), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrContentNotFound)
	files.AssertExpectations(t)
}
