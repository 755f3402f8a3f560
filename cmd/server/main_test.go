package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florancealade/zephyryx-storage-keep/internal/mocks"
	"github.com/florancealade/zephyryx-storage-keep/internal/storage"
)

func hasRoute(r chi.Router, method, pattern string) bool {
	found := false
	_ = chi.Walk(r, func(m, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if m == method && route == pattern {
			found = true
			return errors.New("found")
		}
		return nil
	})
	return found
}

func withSeams(t *testing.T) {
	t.Helper()
	origDB, origMigrate, origFiles := newPostgresDB, migrate, newFileStorage
	t.Cleanup(func() {
		newPostgresDB, migrate, newFileStorage = origDB, origMigrate, origFiles
	})
}

func TestSetupRouter(t *testing.T) {
	withSeams(t)
	newFileStorage = func(context.Context, storage.MinioConfig) (storage.FileStorage, error) {
		return new(mocks.FileStorage), nil
	}

	cfg := defaultConfig()
	cfg.MinioEndpoint = "minio:9000"
	deps, err := setupDependencies(context.Background(), &cfg)
	require.NoError(t, err)
	r := setupRouter(deps)

	routes := []struct{ method, pattern string }{
		{http.MethodGet, "/ping"},
		{http.MethodPost, "/api/register"},
		{http.MethodPost, "/api/login"},
		{http.MethodGet, "/api/height"},
		{http.MethodGet, "/api/vaults/"},
		{http.MethodPost, "/api/vaults/"},
		{http.MethodGet, "/api/vaults/{vaultID}/"},
		{http.MethodPut, "/api/vaults/{vaultID}/"},
		{http.MethodGet, "/api/vaults/{vaultID}/grants"},
		{http.MethodPost, "/api/vaults/{vaultID}/grants"},
		{http.MethodGet, "/api/vaults/{vaultID}/grants/{grantee}"},
		{http.MethodPut, "/api/vaults/{vaultID}/content"},
		{http.MethodGet, "/api/vaults/{vaultID}/content"},
	}
	for _, rt := range routes {
		assert.True(t, hasRoute(r, rt.method, rt.pattern), "%s %s", rt.method, rt.pattern)
	}
}

func TestSetupRouter_WithoutContent(t *testing.T) {
	cfg := defaultConfig()
	deps, err := setupDependencies(context.Background(), &cfg)
	require.NoError(t, err)
	r := setupRouter(deps)

	assert.Nil(t, deps.contentHandler)
	assert.False(t, hasRoute(r, http.MethodPut, "/api/vaults/{vaultID}/content"))
	assert.True(t, hasRoute(r, http.MethodGet, "/api/vaults/{vaultID}/grants"))
}

func TestRouter_PingAndAuth(t *testing.T) {
	cfg := defaultConfig()
	deps, err := setupDependencies(context.Background(), &cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(setupRouter(deps))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/vaults")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/register", "application/json",
		strings.NewReader(`{"username":"alice","password":"password123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestSetupDependencies_Postgres(t *testing.T) {
	withSeams(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var migrated bool
	newPostgresDB = func(dsn string) (*sqlx.DB, error) {
		assert.Equal(t, "postgres://db", dsn)
		return sqlx.NewDb(db, "sqlmock"), nil
	}
	migrate = func(context.Context, *sql.DB) error {
		migrated = true
		return nil
	}

	cfg := defaultConfig()
	cfg.DatabaseDSN = "postgres://db"
	deps, err := setupDependencies(context.Background(), &cfg)
	require.NoError(t, err)
	assert.True(t, migrated)
	require.NotNil(t, deps.db)
	require.NoError(t, deps.db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetupDependencies_Failures(t *testing.T) {
	t.Run("database", func(t *testing.T) {
		withSeams(t)
		newPostgresDB = func(string) (*sqlx.DB, error) { return nil, errors.New("refused") }

		cfg := defaultConfig()
		cfg.DatabaseDSN = "postgres://db"
		_, err := setupDependencies(context.Background(), &cfg)
		require.ErrorContains(t, err, "refused")
	})

	t.Run("migrations", func(t *testing.T) {
		withSeams(t)
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()
		newPostgresDB = func(string) (*sqlx.DB, error) { return sqlx.NewDb(db, "sqlmock"), nil }
		migrate = func(context.Context, *sql.DB) error { return errors.New("bad schema") }

		cfg := defaultConfig()
		cfg.DatabaseDSN = "postgres://db"
		_, err = setupDependencies(context.Background(), &cfg)
		require.ErrorContains(t, err, "bad schema")
		assert.NoError(t, mock.ExpectationsWereMet(), "pool closed on failure")
	})

	t.Run("object storage", func(t *testing.T) {
		withSeams(t)
		newFileStorage = func(context.Context, storage.MinioConfig) (storage.FileStorage, error) {
			return nil, errors.New("no bucket")
		}

		cfg := defaultConfig()
		cfg.MinioEndpoint = "minio:9000"
		_, err := setupDependencies(context.Background(), &cfg)
		require.ErrorContains(t, err, "no bucket")
	})
}
