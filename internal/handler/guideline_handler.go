package handler

import (
	"errors"
	"net/http"

	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/guideline"

	"github.com/gin-gonic/gin"
)

// GuidelineHandler 提供规范分类列表与分类全文。
type GuidelineHandler struct {
	store *guideline.Store
}

// NewGuidelineHandler 创建一个新的 GuidelineHandler 实例。
func NewGuidelineHandler(store *guideline.Store) *GuidelineHandler {
	return &GuidelineHandler{store: store}
}

// List 返回全部分类。
func (h *GuidelineHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.store.Categories()})
}

// Get 返回分类渲染后的 HTML。
func (h *GuidelineHandler) Get(c *gin.Context) {
	cat, ok := h.store.Lookup(c.Param("slug"))
	if !ok {
		respondError(c, service.ErrGuidelineNotFound, "")
		return
	}
	html, err := h.store.HTML(cat.Slug)
	if err != nil {
		if errors.Is(err, guideline.ErrNotFound) {
			respondError(c, service.ErrGuidelineNotFound, "")
			return
		}
		respondError(c, err, "Failed to load guideline")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": cat.Slug, "label": cat.Label, "html": html})
}

// PDF 返回规范原始 PDF。
func (h *GuidelineHandler) PDF(c *gin.Context) {
	path, err := h.store.PDFPath()
	if err != nil {
		respondError(c, service.ErrGuidelineNotFound, "")
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="design-guidelines.pdf"`)
	c.File(path)
}
