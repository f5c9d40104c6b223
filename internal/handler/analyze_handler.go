package handler

import (
	"net/http"

	"hoa-advisor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AnalyzeHandler 处理照片与纯文字的合规检查请求。
type AnalyzeHandler struct {
	analysisService service.AnalysisService
}

// NewAnalyzeHandler 创建一个新的 AnalyzeHandler 实例。
func NewAnalyzeHandler(analysisService service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{analysisService: analysisService}
}

// Analyze 接收 multipart 表单：image（可选）、message、guidelineSlug。
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	img, err := readUpload(c, "image")
	if err != nil {
		respondError(c, err, "Failed to read the uploaded image.")
		return
	}

	in := service.AnalyzeInput{
		Message:       c.PostForm("message"),
		GuidelineSlug: c.PostForm("guidelineSlug"),
	}
	if img != nil {
		in.HasImage = true
		in.Image = img.data
		in.ImageSize = img.size
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Analysis failed. Please try again.")
		return
	}
	c.JSON(http.StatusOK, result)
}
