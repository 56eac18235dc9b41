package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
)

// FirebaseService stores objects in the project's default Firebase Storage
// bucket.
type FirebaseService struct {
	bucket     *gcs.BucketHandle
	bucketName string
	logger     *zap.Logger
}

func NewFirebaseService(ctx context.Context, app *firebase.App, bucketName string, logger *zap.Logger) (*FirebaseService, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage: failed to create client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("firebase storage: failed to open bucket %s: %w", bucketName, err)
	}
	return &FirebaseService{bucket: bucket, bucketName: bucketName, logger: logger}, nil
}

func (s *FirebaseService) Upload(ctx context.Context, folder, filename string, r io.Reader) (*Object, error) {
	id, err := objectName(folder, filename)
	if err != nil {
		return nil, err
	}

	w := s.bucket.Object(id).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(path.Ext(id))
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to copy file to storage: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return &Object{ID: id, URL: s.publicURL(id), ContentType: w.ContentType, Size: n}, nil
}

func (s *FirebaseService) Delete(ctx context.Context, id string) error {
	if err := s.bucket.Object(id).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DownloadURL returns a V4 signed URL valid for expires.
func (s *FirebaseService) DownloadURL(ctx context.Context, id string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultURLExpiry
	}
	if _, err := s.bucket.Object(id).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	u, err := s.bucket.SignedURL(id, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return u, nil
}

func (s *FirebaseService) publicURL(id string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", s.bucketName, url.QueryEscape(id))
}
