package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// AuthService mocks services.AuthService.
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

// ContentService mocks services.ContentService.
type ContentService struct {
	mock.Mock
}

func (m *ContentService) Upload(ctx context.Context, id uint64, body io.Reader, contentType string) error {
	return m.Called(ctx, id, body, contentType).Error(0)
}

func (m *ContentService) Download(ctx context.Context, id uint64) (io.ReadCloser, *models.Vault, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(0).(io.ReadCloser)
	v, _ := args.Get(1).(*models.Vault)
	return rc, v, args.Error(2)
}

// FileStorage mocks storage.FileStorage.
type FileStorage struct {
	mock.Mock
}

func (m *FileStorage) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	return m.Called(ctx, objectKey, reader, size, contentType).Error(0)
}

func (m *FileStorage) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectKey)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}
