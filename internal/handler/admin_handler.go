package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	adminService  service.AdminService
	reportService service.ReportService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService, reportService service.ReportService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		reportService: reportService,
	}
}

// LoginRequest 定义了管理员登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 校验管理员凭据并返回访问令牌。
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("AdminLogin: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}
	tok, err := h.adminService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Login failed.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// ListSubmissions 按时间倒序分页返回检查记录。
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	submissions, total, err := h.adminService.ListSubmissions(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "Failed to load submissions.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions, "total": total})
}

// GetSubmission 返回单条检查记录。
func (h *AdminHandler) GetSubmission(c *gin.Context) {
	submission, err := h.adminService.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load submission.")
		return
	}
	c.JSON(http.StatusOK, submission)
}

// ListReports 按时间倒序返回全部举报。
func (h *AdminHandler) ListReports(c *gin.Context) {
	reports, err := h.reportService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load reports.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// UpdateReportRequest 中缺省的字段保持原值。
type UpdateReportRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// UpdateReport 修改举报状态或管理员备注。
func (h *AdminHandler) UpdateReport(c *gin.Context) {
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("UpdateReport: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}

	report, err := h.reportService.Update(c.Request.Context(), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		respondError(c, err, "Failed to update report.")
		return
	}
	if claims, ok := c.Get("claims"); ok {
		log.Infof("Admin user '%s' updated report '%s'", claims.(*token.CustomClaims).Username, report.ID)
	}
	c.JSON(http.StatusOK, report)
}

// ExportReports 以 xlsx 附件形式导出全部举报。
func (h *AdminHandler) ExportReports(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.Export(c.Request.Context(), &buf); err != nil {
		respondError(c, err, "Failed to export reports.")
		return
	}
	filename := "violation-reports-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
