// Package router 负责组装 Gin 路由引擎。
package router

import (
	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/internal/handler"
	"hoa-advisor-go/internal/middleware"
	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/ratelimit"
	"hoa-advisor-go/pkg/storage"
	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Deps 汇总路由所需的全部依赖。
type Deps struct {
	Config          config.Config
	Limiter         ratelimit.Limiter
	JWTManager      *token.JWTManager
	Gate            *token.GateToken
	Guidelines      *guideline.Store
	Blobs           storage.Store
	AnalysisService service.AnalysisService
	ChatService     service.ChatService
	ReportService   service.ReportService
	AdminService    service.AdminService
}

// New 创建路由引擎并注册全部路由。
func New(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.MaxMultipartMemory = 16 << 20
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		panic(err)
	}
	// 日志与 Recovery 在最外层，口令校验覆盖之后的所有路由
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.GateMiddleware(d.Gate, cfg.Gate.CookieName))

	limit := func(operation string, rule config.LimitRule) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, operation, rule)
	}

	gateHandler := handler.NewGateHandler(d.Gate, cfg.Gate.CookieName, cfg.Gate.CookieSecure)
	analyzeHandler := handler.NewAnalyzeHandler(d.AnalysisService)
	chatHandler := handler.NewChatHandler(d.ChatService)
	reportHandler := handler.NewReportHandler(d.ReportService)
	guidelineHandler := handler.NewGuidelineHandler(d.Guidelines)
	uploadHandler := handler.NewUploadHandler(d.Blobs)
	adminHandler := handler.NewAdminHandler(d.AdminService, d.ReportService)

	r.GET("/healthz", handler.Healthz)
	r.GET("/gate", gateHandler.Page)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/gate", limit("gate", cfg.RateLimit.Gate), gateHandler.Submit)

		apiV1.POST("/analyze", limit("analyze", cfg.RateLimit.Analyze), analyzeHandler.Analyze)
		apiV1.POST("/chat", limit("chat", cfg.RateLimit.Chat), chatHandler.Continue)
		// 举报匿名提交，不按 IP 限流
		apiV1.POST("/report", reportHandler.Submit)

		guidelines := apiV1.Group("/guidelines")
		{
			guidelines.GET("", guidelineHandler.List)
			guidelines.GET("/pdf", guidelineHandler.PDF)
			guidelines.GET("/:slug", guidelineHandler.Get)
		}

		apiV1.GET("/uploads/*path", uploadHandler.Serve)

		apiV1.POST("/admin/login", limit("admin_login", cfg.RateLimit.AdminLogin), adminHandler.Login)
		admin := apiV1.Group("/admin")
		// 管理员路由组，需要通过管理员令牌校验
		admin.Use(middleware.AdminAuthMiddleware(d.JWTManager))
		{
			admin.GET("/submissions", adminHandler.ListSubmissions)
			admin.GET("/submissions/:id", adminHandler.GetSubmission)
			admin.GET("/reports", adminHandler.ListReports)
			admin.GET("/reports/export", adminHandler.ExportReports)
			admin.PATCH("/reports/:id", adminHandler.UpdateReport)
		}
	}
	return r
}
