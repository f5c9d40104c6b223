// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/internal/router"
	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/database"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/kafka"
	"hoa-advisor-go/pkg/llm"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/ratelimit"
	"hoa-advisor-go/pkg/storage"
	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("HOA_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 后台任务在停机时统一取消
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	// 3. 初始化数据库和 Redis
	database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err := repository.AutoMigrate(database.DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	defer database.CloseRedis()

	blobs, err := storage.NewFromConfig(bgCtx, cfg.Storage)
	if err != nil {
		log.Fatalf("存储后端初始化失败: %v", err)
	}
	events := kafka.NewPublisher(cfg.Kafka)
	defer events.Close()

	guidelines := guideline.NewStore(cfg.Guidelines.Dir, cfg.Guidelines.PDFPath)
	checkGuidelines(guidelines)

	// 4. 初始化限流器
	var limiter ratelimit.Limiter
	var prunerDone <-chan struct{}
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(database.RDB)
		log.Info("限流器使用 Redis 后端")
	} else {
		memLimiter := ratelimit.NewMemoryLimiter()
		prunerDone = memLimiter.StartPruner(bgCtx, time.Duration(cfg.RateLimit.PruneIntervalMinutes)*time.Minute)
		limiter = memLimiter
	}

	// 5. 初始化 Repository
	submissionRepo := repository.NewSubmissionRepository(database.DB)
	reportRepo := repository.NewReportRepository(database.DB)
	cacheRepo := repository.NewCacheRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	gate := token.NewGateToken(cfg.JWT.Secret, cfg.Gate.Passcode)
	llmClient := llm.NewClient(cfg.LLM)

	var locker service.Locker
	if cfg.Chat.SerializeContinuations {
		if database.Locker != nil {
			locker = service.NewRedisLocker(database.Locker)
			log.Info("续聊串行化已启用")
		} else {
			log.Warnf("chat.serialize_continuations 需要 Redis，已忽略")
		}
	}

	cacheService := service.NewCacheService(cacheRepo, guidelines)
	analysisService := service.NewAnalysisService(submissionRepo, cacheService, guidelines, blobs, llmClient, events, cfg.LLM.AnalysisMaxTokens)
	chatService := service.NewChatService(submissionRepo, guidelines, llmClient, locker, time.Duration(cfg.Chat.LockTTLSeconds)*time.Second, cfg.LLM.ChatMaxTokens)
	reportService := service.NewReportService(reportRepo, blobs, events)
	adminService := service.NewAdminService(cfg.Admin, jwtManager, submissionRepo)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := router.New(router.Deps{
		Config:          cfg,
		Limiter:         limiter,
		JWTManager:      jwtManager,
		Gate:            gate,
		Guidelines:      guidelines,
		Blobs:           blobs,
		AnalysisService: analysisService,
		ChatService:     chatService,
		ReportService:   reportService,
		AdminService:    adminService,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止限流器清理协程
	cancelBg()
	if prunerDone != nil {
		<-prunerDone
	}
	log.Info("服务已优雅关闭")
}

// checkGuidelines 启动时检查每个分类是否有抽取好的文本，缺失的分类只能回答通用问题。
func checkGuidelines(store *guideline.Store) {
	var missing []string
	for _, cat := range store.Categories() {
		if store.Version(cat.Slug) == "" {
			missing = append(missing, cat.Slug)
		}
	}
	if len(missing) > 0 {
		log.Warnf("以下规范分类缺少文本文件，将不附加全文上下文: %v", missing)
		return
	}
	log.Info("规范文本检查完成")
}
