package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryService stores objects as Cloudinary assets. The object id is
// the asset's public id.
type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

func NewCloudinaryService(cld *cloudinary.Cloudinary, logger *zap.Logger) *CloudinaryService {
	return &CloudinaryService{cld: cld, logger: logger}
}

func (s *CloudinaryService) Upload(ctx context.Context, folder, filename string, r io.Reader) (*Object, error) {
	name, err := objectName("", filename)
	if err != nil {
		return nil, err
	}
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       strings.Trim(folder, "/"),
		PublicID:     strings.TrimSuffix(name, path.Ext(name)),
		ResourceType: "auto",
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("cloudinary: no public ID returned")
	}
	return &Object{
		ID:          result.PublicID,
		URL:         result.SecureURL,
		ContentType: result.ResourceType + "/" + result.Format,
		Size:        int64(result.Bytes),
	}, nil
}

func (s *CloudinaryService) Delete(ctx context.Context, id string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return fmt.Errorf("cloudinary: failed to delete file: %w", err)
	}
	if result.Result == "not found" {
		return ErrNotFound
	}
	return nil
}

// DownloadURL returns the delivery URL of an image asset. Cloudinary
// delivery URLs do not expire.
func (s *CloudinaryService) DownloadURL(_ context.Context, id string, _ time.Duration) (string, error) {
	a, err := s.cld.Image(id)
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to get asset: %w", err)
	}
	u, err := a.String()
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to build URL: %w", err)
	}
	return u, nil
}
