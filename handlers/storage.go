package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/integrations"
	"meramarket/services/storage"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxUploadSize caps a single uploaded file.
const MaxUploadSize = 10 << 20

// allowedBuckets defines permitted buckets for uploads.
var allowedBuckets = map[string]bool{
	"listings":     true,
	"requirements": true,
	"avatars":      true,
}

// StorageHandler uploads files through the active storage provider. Every
// object lives under "<bucket>/<userId>/" so ownership can be checked from
// the id alone.
type StorageHandler struct {
	registry *integrations.Registry
}

func NewStorageHandler(registry *integrations.Registry) *StorageHandler {
	return &StorageHandler{registry: registry}
}

func (h *StorageHandler) service(c *gin.Context) (storage.Service, bool) {
	svc, err := integrations.Resolve[storage.Service](c.Request.Context(), h.registry, integrations.CategoryStorage)
	if err != nil {
		getLogger(c).Error("Storage provider unavailable", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Storage is unavailable", err.Error())
		return nil, false
	}
	return svc, true
}

// UploadFileHandler stores the multipart field "file" in the given bucket.
func (h *StorageHandler) UploadFileHandler(c *gin.Context) {
	bucket := c.Param("bucket")
	if !allowedBuckets[bucket] {
		utils.JSONError(c, http.StatusBadRequest, "Invalid bucket", "allowed values are listings, requirements and avatars")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "File not provided", err.Error())
		return
	}
	if fileHeader.Size > MaxUploadSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "maximum size is "+strconv.Itoa(MaxUploadSize>>20)+"MB")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read file", err.Error())
		return
	}
	defer f.Close()

	svc, ok := h.service(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	obj, err := svc.Upload(c.Request.Context(), bucket+"/"+user.ID, fileHeader.Filename, f)
	if err != nil {
		respondError(c, "Failed to upload file", err)
		return
	}
	getLogger(c).Info("File uploaded", zap.String("id", obj.ID), zap.String("userId", user.ID))
	c.JSON(http.StatusCreated, obj)
}

// GetDownloadURLHandler returns a URL for ?id=, valid for ?expires= seconds
// where the provider supports expiry.
func (h *StorageHandler) GetDownloadURLHandler(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing object id", "")
		return
	}
	expires := storage.DefaultURLExpiry
	if raw := c.Query("expires"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid expires", "expires must be a positive number of seconds")
			return
		}
		expires = time.Duration(secs) * time.Second
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}
	url, err := svc.DownloadURL(c.Request.Context(), id, expires)
	if err != nil {
		respondError(c, "Failed to construct download URL", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "url": url})
}

// DeleteFileHandler removes ?id= if the caller owns it or is an admin.
func (h *StorageHandler) DeleteFileHandler(c *gin.Context) {
	id := c.Query("id")
	if !ownsObject(middleware.CurrentUser(c), id) {
		utils.JSONError(c, http.StatusForbidden, "Not allowed to delete this file", "")
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	if err := svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete file", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ownsObject(user *models.User, id string) bool {
	if user == nil || id == "" {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	parts := strings.SplitN(id, "/", 3)
	return len(parts) == 3 && allowedBuckets[parts[0]] && parts[1] == user.ID
}
