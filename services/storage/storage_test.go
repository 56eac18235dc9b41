package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectName(t *testing.T) {
	id, err := objectName("listings/abc", "My Phone (1).JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "listings/abc/"), id)
	assert.True(t, strings.HasSuffix(id, "-My-Phone-1-.JPG"), id)

	id, err = objectName("../../etc", "../passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "etc/"), id)
	assert.NotContains(t, id, "..")

	_, err = objectName("x", "  ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("listings/abc/1234-photo.jpg"))
	assert.False(t, validID(""))
	assert.False(t, validID("/etc/passwd"))
	assert.False(t, validID("listings/../../etc/passwd"))
	assert.False(t, validID("a//b"))
}

func TestLocalServiceLifecycle(t *testing.T) {
	root := t.TempDir()
	svc, err := NewLocalService(root, "http://localhost:8080/uploads/", zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := svc.Upload(ctx, "listings/l1", "photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("png-bytes")), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "http://localhost:8080/uploads/"+obj.ID, obj.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(obj.ID)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	u, err := svc.DownloadURL(ctx, obj.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, obj.URL, u)

	require.NoError(t, svc.Delete(ctx, obj.ID))
	assert.ErrorIs(t, svc.Delete(ctx, obj.ID), ErrNotFound)
	_, err = svc.DownloadURL(ctx, obj.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "../outside"), ErrInvalidName)
}
