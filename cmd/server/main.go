package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/florancealade/zephyryx-storage-keep/internal/handlers"
	"github.com/florancealade/zephyryx-storage-keep/internal/ledger"
	appmiddleware "github.com/florancealade/zephyryx-storage-keep/internal/middleware"
	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/internal/repository"
	"github.com/florancealade/zephyryx-storage-keep/internal/services"
	"github.com/florancealade/zephyryx-storage-keep/internal/storage"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Seams for tests.
var (
	newPostgresDB  = repository.NewPostgresDB
	migrate        = repository.Migrate
	newFileStorage = func(ctx context.Context, cfg storage.MinioConfig) (storage.FileStorage, error) {
		return storage.NewMinioClient(ctx, cfg)
	}
)

type dependencies struct {
	db             *sqlx.DB
	authHandler    *handlers.AuthHandler
	regHandler     *handlers.RegistryHandler
	contentHandler *handlers.ContentHandler
	secret         []byte
}

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseConfig(os.Args[1:], env.ToMap(os.Environ()))
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	level, _ := parseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer func() {
		if deps.db != nil {
			if closeErr := deps.db.Close(); closeErr != nil {
				slog.Error("close database", "error", closeErr)
			}
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      setupRouter(deps),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "tls", cfg.tlsEnabled())
		if cfg.tlsEnabled() {
			errCh <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err = <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// setupDependencies builds storage, the registry and the handlers from cfg.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{secret: []byte(cfg.JWTSecret)}

	var (
		vaults repository.VaultRepository
		grants repository.GrantRepository
		users  repository.UserRepository
	)
	if cfg.DatabaseDSN == "" {
		slog.Warn("DATABASE_DSN not set, state is kept in memory")
		mem := repository.NewMemoryStore()
		vaults, grants, users = mem, mem, mem
	} else {
		db, err := newPostgresDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err = migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		deps.db = db
		vaults = repository.NewPostgresVaultRepository(db)
		grants = repository.NewPostgresGrantRepository(db)
		users = repository.NewPostgresUserRepository(db)
	}

	clock := ledger.NewBlockClock(cfg.GenesisTime, cfg.BlockInterval)
	reg := registry.New(vaults, grants, ledger.NewRequestHost(clock), slog.Default())

	deps.authHandler = handlers.NewAuthHandler(services.NewAuthService(users, deps.secret, cfg.TokenTTL))
	deps.regHandler = handlers.NewRegistryHandler(reg)

	if cfg.MinioEndpoint == "" {
		slog.Warn("MINIO_ENDPOINT not set, content routes are disabled")
		return deps, nil
	}
	files, err := newFileStorage(ctx, storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioUser,
		SecretAccessKey: cfg.MinioPassword,
		UseSSL:          cfg.MinioUseSSL,
		BucketName:      cfg.MinioBucket,
	})
	if err != nil {
		if deps.db != nil {
			_ = deps.db.Close()
		}
		return nil, err
	}
	deps.contentHandler = handlers.NewContentHandler(services.NewContentService(reg, files, cfg.MaxContentBytes))
	return deps, nil
}

func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", deps.authHandler.Register)
		r.Post("/login", deps.authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.NewAuthenticator(deps.secret))

			r.Get("/height", deps.regHandler.Height)
			r.Route("/vaults", func(r chi.Router) {
				r.Get("/", deps.regHandler.List)
				r.Post("/", deps.regHandler.Register)
				r.Route("/{vaultID}", func(r chi.Router) {
					r.Get("/", deps.regHandler.Show)
					r.Put("/", deps.regHandler.Update)
					r.Get("/grants", deps.regHandler.Grants)
					r.Post("/grants", deps.regHandler.Delegate)
					r.Get("/grants/{grantee}", deps.regHandler.Grant)
					if deps.contentHandler != nil {
						r.Put("/content", deps.contentHandler.Upload)
						r.Get("/content", deps.contentHandler.Download)
					}
				})
			})
		})
	})
	return r
}
