package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// LocalStorage implements port.ObjectStorage on the local filesystem.
// Signed URLs point at the portal's own download endpoint.
type LocalStorage struct {
	baseDir     string
	downloadURL string
	signer      *URLSigner
	logger      *zap.Logger
}

// NewLocalStorage creates a LocalStorage rooted at baseDir. downloadURL is the
// public address of the endpoint that redeems signed tokens.
func NewLocalStorage(baseDir, downloadURL string, signer *URLSigner, logger *zap.Logger) *LocalStorage {
	return &LocalStorage{
		baseDir:     baseDir,
		downloadURL: downloadURL,
		signer:      signer,
		logger:      logger,
	}
}

// Put writes content under key, creating parent directories
func (s *LocalStorage) Put(ctx context.Context, key string, content []byte, contentType string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		s.logger.Error("Failed to create parent directories", zap.String("path", fullPath), zap.Error(err))
		return ierr.Storage(err, "create directories")
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		s.logger.Error("Failed to write file", zap.String("path", fullPath), zap.Error(err))
		return ierr.Storage(err, "write file")
	}

	s.logger.Debug("File saved",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(content)))
	return nil
}

// Get reads the object stored under key
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return nil, ierr.NotFound("file", "Arquivo não encontrado.")
	}
	if err != nil {
		s.logger.Error("Failed to read file", zap.String("path", fullPath), zap.Error(err))
		return nil, ierr.Storage(err, "read file")
	}
	return content, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return ierr.Storage(err, "delete file")
	}
	return nil
}

// SignedURL returns the download endpoint with a token valid for ttl
func (s *LocalStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}

	token, err := s.signer.Sign(key, ttl)
	if err != nil {
		return "", ierr.Storage(err, "sign url")
	}
	return s.downloadURL + "?token=" + url.QueryEscape(token), nil
}

// Redeem verifies a download token and returns the key it grants
func (s *LocalStorage) Redeem(token string) (string, error) {
	return s.signer.Verify(token)
}

// resolve maps key to a path inside baseDir
func (s *LocalStorage) resolve(key string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ierr.NewError("path escapes base directory: " + key).
			WithHint("Arquivo inválido.").
			Mark(ierr.ErrValidation)
	}
	return absPath, nil
}

// Verify interface compliance
var _ port.ObjectStorage = (*LocalStorage)(nil)
