package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// config holds the server settings. Environment variables are read first and
// command-line flags override them.
type config struct {
	Port            string        `env:"SERVER_PORT"       envDefault:"8443"`
	CertFile        string        `env:"TLS_CERT_FILE"`
	KeyFile         string        `env:"TLS_KEY_FILE"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"         envDefault:"24h"`
	GenesisTime     time.Time     `env:"GENESIS_TIME"      envDefault:"2024-01-01T00:00:00Z"`
	BlockInterval   time.Duration `env:"BLOCK_INTERVAL"    envDefault:"10m"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
	MinioEndpoint   string        `env:"MINIO_ENDPOINT"`
	MinioUser       string        `env:"MINIO_USER"`
	MinioPassword   string        `env:"MINIO_PASSWORD"`
	MinioBucket     string        `env:"MINIO_BUCKET"      envDefault:"vault-content"`
	MinioUseSSL     bool          `env:"MINIO_USE_SSL"`
	MaxContentBytes int64         `env:"MAX_CONTENT_BYTES" envDefault:"33554432"`
}

// parseConfig reads environ, then applies args on top and validates the result.
func parseConfig(args []string, environ map[string]string) (*config, error) {
	cfg := &config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "listen port (env: SERVER_PORT)")
	fs.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "TLS certificate file (env: TLS_CERT_FILE)")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "TLS key file (env: TLS_KEY_FILE)")
	fs.StringVar(&cfg.DatabaseDSN, "database-dsn", cfg.DatabaseDSN,
		"PostgreSQL DSN, empty keeps state in memory (env: DATABASE_DSN)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "token signing secret (env: JWT_SECRET)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "token lifetime (env: TOKEN_TTL)")
	fs.Func("genesis", "RFC 3339 time of height 0 (env: GENESIS_TIME)", func(s string) error {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		cfg.GenesisTime = t
		return nil
	})
	fs.DurationVar(&cfg.BlockInterval, "block-interval", cfg.BlockInterval, "time per height (env: BLOCK_INTERVAL)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env: LOG_LEVEL)")
	fs.StringVar(&cfg.MinioEndpoint, "minio-endpoint", cfg.MinioEndpoint,
		"MinIO endpoint, empty disables content routes (env: MINIO_ENDPOINT)")
	fs.StringVar(&cfg.MinioBucket, "minio-bucket", cfg.MinioBucket, "content bucket (env: MINIO_BUCKET)")
	fs.Int64Var(&cfg.MaxContentBytes, "max-content-bytes", cfg.MaxContentBytes,
		"largest accepted content body (env: MAX_CONTENT_BYTES)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("token signing secret is required (--jwt-secret or JWT_SECRET)")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("TLS needs both a certificate and a key (TLS_CERT_FILE, TLS_KEY_FILE)")
	}
	if c.BlockInterval <= 0 {
		return errors.New("block interval must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.MaxContentBytes <= 0 {
		return errors.New("max content bytes must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// tlsEnabled reports whether the server should serve HTTPS.
func (c *config) tlsEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}
