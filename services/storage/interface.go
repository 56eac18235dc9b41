package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultURLExpiry is used when a caller asks for a download URL without an
// expiry.
const DefaultURLExpiry = 15 * time.Minute

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

// Object is a stored file.
type Object struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
}

// Service is the storage capability. Object ids are provider specific and
// only meaningful to the provider that issued them.
type Service interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, id string) error
	DownloadURL(ctx context.Context, id string, expires time.Duration) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// objectName builds a collision free "folder/uuid-name" id from user input.
func objectName(folder, filename string) (string, error) {
	name := unsafeChars.ReplaceAllString(filepath.Base(strings.TrimSpace(filename)), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "", ErrInvalidName
	}
	folder = strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, "\\", "/")), "/")
	id := uuid.NewString()[:8] + "-" + name
	if folder == "" || folder == "." {
		return id, nil
	}
	return folder + "/" + id, nil
}

// validID rejects ids that would escape the storage root.
func validID(id string) bool {
	if id == "" || strings.HasPrefix(id, "/") || strings.Contains(id, "\\") {
		return false
	}
	for _, part := range strings.Split(id, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
