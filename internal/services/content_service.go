package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/florancealade/zephyryx-storage-keep/internal/registry"
	"github.com/florancealade/zephyryx-storage-keep/internal/storage"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Content errors.
var (
	ErrFingerprintMismatch = errors.New("content digest does not match the vault fingerprint")
	ErrContentTooLarge     = errors.New("content exceeds the size limit")
	ErrContentNotFound     = errors.New("no content stored for the current fingerprint")
)

// VaultAccess is the part of the registry content operations rely on.
type VaultAccess interface {
	Authorize(ctx context.Context, id uint64) (*models.Vault, error)
	CanRead(ctx context.Context, id uint64) (bool, error)
	Vault(ctx context.Context, id uint64) (*models.Vault, error)
}

// ContentService moves vault content blobs in and out of object storage.
type ContentService interface {
	// Upload stores body for a vault owned by the caller. The SHA-256 of body must
	// equal the vault fingerprint.
	Upload(ctx context.Context, id uint64, body io.Reader, contentType string) error
	// Download opens the blob for the vault's current fingerprint.
	Download(ctx context.Context, id uint64) (io.ReadCloser, *models.Vault, error)
}

var _ ContentService = (*contentService)(nil)

type contentService struct {
	vaults   VaultAccess
	files    storage.FileStorage
	maxBytes int64
}

// NewContentService creates a ContentService accepting bodies up to maxBytes.
func NewContentService(vaults VaultAccess, files storage.FileStorage, maxBytes int64) ContentService {
	return &contentService{vaults: vaults, files: files, maxBytes: maxBytes}
}

// ObjectKey is where the blob for a vault fingerprint lives.
func ObjectKey(id uint64, fingerprint string) string {
	return fmt.Sprintf("vaults/%d/%s", id, strings.ToLower(fingerprint))
}

func (s *contentService) Upload(ctx context.Context, id uint64, body io.Reader, contentType string) error {
	v, err := s.vaults.Authorize(ctx, id)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return ErrContentTooLarge
	}

	sum := sha256.Sum256(data)
	if !strings.EqualFold(hex.EncodeToString(sum[:]), v.Fingerprint) {
		slog.InfoContext(ctx, "[ContentService] fingerprint mismatch", "vault_id", id)
		return ErrFingerprintMismatch
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(id, v.Fingerprint)
	if err = s.files.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return fmt.Errorf("store content: %w", err)
	}

	slog.InfoContext(ctx, "[ContentService] content stored", "vault_id", id, "bytes", len(data))
	return nil
}

func (s *contentService) Download(ctx context.Context, id uint64) (io.ReadCloser, *models.Vault, error) {
	ok, err := s.vaults.CanRead(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, registry.ErrUnauthorized
	}

	v, err := s.vaults.Vault(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.files.DownloadFile(ctx, ObjectKey(id, v.Fingerprint))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrContentNotFound
		}
		return nil, nil, fmt.Errorf("fetch content: %w", err)
	}
	return rc, v, nil
}
