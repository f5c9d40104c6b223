package handler

import (
	"net/http"

	"hoa-advisor-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 处理匿名违规举报。
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler 创建一个新的 ReportHandler 实例。
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Submit 接收 multipart 表单：address、description、notes、photo（可选）。
func (h *ReportHandler) Submit(c *gin.Context) {
	photo, err := readUpload(c, "photo")
	if err != nil {
		respondError(c, err, "Failed to submit report.")
		return
	}

	in := service.ReportInput{
		Address:     c.PostForm("address"),
		Description: c.PostForm("description"),
		Notes:       c.PostForm("notes"),
	}
	if photo != nil {
		in.HasPhoto = true
		in.Photo = photo.data
		in.PhotoSize = photo.size
	}

	report, err := h.reportService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Failed to submit report.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reportId": report.ID})
}
