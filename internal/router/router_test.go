package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/internal/router"
	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/database"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/kafka"
	"hoa-advisor-go/pkg/llm"
	"hoa-advisor-go/pkg/ratelimit"
	"hoa-advisor-go/pkg/storage"
	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testPasscode = "maple-grove"
	adminUser    = "admin"
	adminPass    = "correct horse"
)

const fencingText = "Fencing\n\n1. Height\n1.1. Fences in side and rear yards may not exceed 6 feet.\n1.2. Front yard fences may not exceed 4 feet.\n"

const violationJSON = `{"compliance_status":"violation","summary":"The rear fence appears taller than 6 feet.","issues":[{"element":"Rear fence","status":"violation","detail":"Looks about 8 ft."}],"recommendations":["Lower the fence."],"not_assessed":["Roof"],"message":"I found one likely issue with your fence."}`

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	args := m.Called(ctx, messages, gen)
	return args.String(0), args.Error(1)
}

type testApp struct {
	t       *testing.T
	engine  *gin.Engine
	llm     *mockLLM
	gate    *token.GateToken
	blobs   storage.Store
	limiter *ratelimit.MemoryLimiter
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	rule := config.LimitRule{Limit: 1000, WindowMinutes: 60}
	return config.Config{
		Server: config.ServerConfig{Port: "0", Mode: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessTokenExpireHours: 8},
		Gate:   config.GateConfig{Passcode: testPasscode, CookieName: "hoa_access"},
		Admin:  config.AdminConfig{Username: adminUser, Password: adminPass},
		RateLimit: config.RateLimitConfig{
			Backend:              "memory",
			PruneIntervalMinutes: 10,
			Analyze:              rule,
			Chat:                 rule,
			Gate:                 rule,
			AdminLogin:           rule,
		},
	}
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	dir := t.TempDir()

	db, err := database.Open("sqlite", filepath.Join(dir, "hoa.db"))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	guideDir := filepath.Join(dir, "guidelines")
	require.NoError(t, os.MkdirAll(guideDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(guideDir, "fencing.txt"), []byte(fencingText), 0o644))
	guidelines := guideline.NewStore(guideDir, "")

	blobs, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	submissions := repository.NewSubmissionRepository(db)
	reports := repository.NewReportRepository(db)
	cache := service.NewCacheService(repository.NewCacheRepository(db), guidelines)
	stub := &mockLLM{}
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	gate := token.NewGateToken(cfg.JWT.Secret, cfg.Gate.Passcode)
	events := kafka.NopPublisher{}
	limiter := ratelimit.NewMemoryLimiter()

	engine := router.New(router.Deps{
		Config:          cfg,
		Limiter:         limiter,
		JWTManager:      jwtManager,
		Gate:            gate,
		Guidelines:      guidelines,
		Blobs:           blobs,
		AnalysisService: service.NewAnalysisService(submissions, cache, guidelines, blobs, stub, events, 1000),
		ChatService:     service.NewChatService(submissions, guidelines, stub, nil, 0, 500),
		ReportService:   service.NewReportService(reports, blobs, events),
		AdminService:    service.NewAdminService(cfg.Admin, jwtManager, submissions),
	})
	return &testApp{t: t, engine: engine, llm: stub, gate: gate, blobs: blobs, limiter: limiter}
}

// serve 发送请求；withCookie 为 true 时附带有效的访问 cookie。
func (a *testApp) serve(req *http.Request, withCookie bool) *httptest.ResponseRecorder {
	if withCookie {
		req.AddCookie(&http.Cookie{Name: "hoa_access", Value: a.gate.Expected()})
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) postJSON(path string, body interface{}, withCookie bool) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(a.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return a.serve(req, withCookie)
}

// postForm 以 multipart 表单发送字段与可选文件。
func (a *testApp) postForm(path string, fields map[string]string, fileField, fileName string, file []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(a.t, err)
		_, err = fw.Write(file)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req, true)
}

func (a *testApp) adminToken() string {
	w := a.postJSON("/api/v1/admin/login", map[string]string{"username": adminUser, "password": adminPass}, false)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(a.t, body.Token)
	return body.Token
}

func (a *testApp) adminGet(path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return a.serve(req, false)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// noisyJPEG 生成一张约几十 KB 的 JPEG。
func noisyJPEG(t *testing.T) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, 160, 160))
	for x := 0; x < 160; x++ {
		for y := 0; y < 160; y++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}
