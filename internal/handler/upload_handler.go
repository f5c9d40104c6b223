package handler

import (
	"errors"
	"net/http"

	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/storage"

	"github.com/gin-gonic/gin"
)

// UploadHandler 提供已上传图片的读取。
type UploadHandler struct {
	blobs storage.Store
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(blobs storage.Store) *UploadHandler {
	return &UploadHandler{blobs: blobs}
}

// Serve 按路径返回图片。非法路径、非图片扩展名与不存在的对象统一返回 404。
func (h *UploadHandler) Serve(c *gin.Context) {
	key, err := storage.CleanKey(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	contentType, ok := storage.ContentTypeFor(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	data, err := h.blobs.Get(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Errorf("读取上传文件失败: key=%s, err=%v", key, err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.Header("Content-Disposition", "inline")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}
