package middleware_test

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hoa-advisor-go/internal/middleware"
	"hoa-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestLogs 读取日志文件中的请求日志，按 path 索引。
func requestLogs(t *testing.T, file string) map[string]map[string]interface{} {
	t.Helper()
	log.Sync()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	entries := map[string]map[string]interface{}{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var entry map[string]interface{}
		if json.Unmarshal(sc.Bytes(), &entry) != nil || entry["msg"] != "HTTP Request Log" {
			continue
		}
		if path, ok := entry["path"].(string); ok {
			entries[path] = entry
		}
	}
	require.NoError(t, sc.Err())
	return entries
}

func TestRequestLogger(t *testing.T) {
	dir := t.TempDir()
	log.Init("info", "json", dir)

	var chatBodyLen int
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.POST("/api/v1/report", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true, "reportId": "rep-7f3a"})
	})
	r.POST("/api/v1/chat", func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		chatBodyLen = len(raw)
		c.JSON(http.StatusOK, gin.H{"message": "Fences may be 6 feet."})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/report", strings.NewReader("address=12+Elm+St"))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.77:41000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	chatBody := `{"submissionId":"s1","message":"` + strings.Repeat("a", 10000) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(chatBody))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.9:41000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := requestLogs(t, filepath.Join(dir, "app.log"))

	t.Run("report stays anonymous", func(t *testing.T) {
		entry, ok := entries["/api/v1/report"]
		require.True(t, ok)
		assert.NotContains(t, entry, "clientIP")
		assert.Equal(t, "[omitted]", entry["requestBody"])
		assert.Equal(t, "[omitted]", entry["responseBody"])
		line, _ := json.Marshal(entry)
		assert.NotContains(t, string(line), "203.0.113.77")
		assert.NotContains(t, string(line), "rep-7f3a")
	})

	t.Run("large body is truncated in the log and replayed in full", func(t *testing.T) {
		assert.Equal(t, len(chatBody), chatBodyLen)
		entry, ok := entries["/api/v1/chat"]
		require.True(t, ok)
		assert.Equal(t, "198.51.100.9", entry["clientIP"])
		logged, _ := entry["requestBody"].(string)
		assert.True(t, strings.HasSuffix(logged, "...(truncated)"))
		assert.Len(t, logged, 2048+len("...(truncated)"))
		assert.Contains(t, entry["responseBody"], "Fences may be 6 feet.")
	})
}
