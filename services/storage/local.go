package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalService stores objects under a directory served at baseURL.
type LocalService struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewLocalService creates root if needed. baseURL is the public prefix the
// directory is served under, e.g. http://localhost:8080/uploads.
func NewLocalService(root, baseURL string, logger *zap.Logger) (*LocalService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalService{root: root, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}, nil
}

func (s *LocalService) Upload(_ context.Context, folder, filename string, r io.Reader) (*Object, error) {
	id, err := objectName(folder, filename)
	if err != nil {
		return nil, err
	}
	dest := filepath.Join(s.root, filepath.FromSlash(id))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Stored file locally", zap.String("id", id), zap.Int64("bytes", n))
	return &Object{
		ID:          id,
		URL:         s.url(id),
		ContentType: mime.TypeByExtension(filepath.Ext(id)),
		Size:        n,
	}, nil
}

func (s *LocalService) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(id)))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// DownloadURL returns the public URL; local files do not expire.
func (s *LocalService) DownloadURL(_ context.Context, id string, _ time.Duration) (string, error) {
	if !validID(id) {
		return "", ErrInvalidName
	}
	if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(id))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return s.url(id), nil
}

func (s *LocalService) url(id string) string {
	return s.baseURL + "/" + id
}
