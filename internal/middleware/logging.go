// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"hoa-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody 是日志中请求体与响应体保留的最大字节数。
const maxLoggedBody = 2048

// 这些路径的请求体包含口令或凭据，不写入日志。
var sensitivePaths = []string{"/api/v1/gate", "/api/v1/admin/login"}

// 匿名接口不记录客户端 IP 与响应体，避免把提交者和记录 ID 关联起来。
var anonymousPaths = []string{"/api/v1/report"}

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
// multipart 上传与凭据类请求只记录元信息，不记录请求体。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		startTime := time.Now()
		path := c.Request.URL.Path

		requestBody := "[omitted]"
		if shouldCaptureBody(c) {
			// 只预读日志需要的前缀，再与剩余部分拼接回请求体，供后续处理函数读取
			head, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody+1))
			c.Request.Body = replayBody{
				Reader: io.MultiReader(bytes.NewReader(head), c.Request.Body),
				Closer: c.Request.Body,
			}
			requestBody = truncateForLog(head)
		}

		// 使用自定义的 ResponseWriter 捕获响应
		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		// 处理请求
		c.Next()

		anonymous := matchesPath(anonymousPaths, path)
		responseBody := "[omitted]"
		if isJSON(blw.Header().Get("Content-Type")) && !isSensitive(path) && !anonymous {
			responseBody = truncateForLog(blw.body.Bytes())
		}

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
		}
		if !anonymous {
			fields = append(fields, "clientIP", c.ClientIP())
		}
		fields = append(fields,
			"method", c.Request.Method,
			"path", path,
			"requestBody", requestBody,
			"responseBody", responseBody,
		)
		log.Infow("HTTP Request Log", fields...)
	}
}

// replayBody 先返回预读的前缀，再继续读取原始请求体。
type replayBody struct {
	io.Reader
	io.Closer
}

func shouldCaptureBody(c *gin.Context) bool {
	path := c.Request.URL.Path
	if c.Request.Body == nil || isSensitive(path) || matchesPath(anonymousPaths, path) {
		return false
	}
	return isJSON(c.ContentType())
}

func isSensitive(path string) bool {
	return matchesPath(sensitivePaths, path)
}

func matchesPath(paths []string, path string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func truncateForLog(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}
