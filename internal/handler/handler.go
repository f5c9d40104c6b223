// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"

	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/imagecheck"
	"hoa-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误映射为 HTTP 状态码。上游与内部错误只返回 fallback 文案，原因写入日志。
func respondError(c *gin.Context, err error, fallback string) {
	var inputErr *service.InputError
	var upstreamErr *service.UpstreamError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Message})
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, service.ErrGuidelineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &upstreamErr):
		log.Errorw("模型调用失败", "method", c.Request.Method, "route", c.FullPath(), "op", upstreamErr.Op, "err", upstreamErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	default:
		log.Errorw("请求处理失败", "method", c.Request.Method, "route", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// upload 是从 multipart 表单读取的图片。超过上限时不读取内容，由校验按大小拒绝。
type upload struct {
	data []byte
	size int64
}

// readUpload 读取 field 对应的文件；字段不存在或请求不是 multipart 时返回 nil。
func readUpload(c *gin.Context, field string) (*upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &service.InputError{Message: "Invalid upload."}
	}
	if fh.Size > imagecheck.MaxBytes {
		return &upload{size: fh.Size}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, imagecheck.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	return &upload{data: data, size: int64(len(data))}, nil
}

// Healthz 用于存活探测。
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
