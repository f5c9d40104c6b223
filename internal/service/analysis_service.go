package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoa-advisor-go/internal/model"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/kafka"
	"hoa-advisor-go/pkg/llm"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/storage"

	"gorm.io/datatypes"
)

// AnalyzeInput 是一次合规检查请求。HasImage 为 true 表示请求中带有照片字段（即使为空文件）。
type AnalyzeInput struct {
	HasImage      bool
	Image         []byte
	ImageSize     int64
	Message       string
	GuidelineSlug string
}

// AnalyzeResult 是返回给调用方的结果。
type AnalyzeResult struct {
	SubmissionID string         `json:"submissionId"`
	Analysis     model.Analysis `json:"analysis"`
}

// AnalysisService 处理照片或纯文字的合规检查。
type AnalysisService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error)
}

type analysisService struct {
	submissions repository.SubmissionRepository
	cache       CacheService
	guidelines  *guideline.Store
	blobs       storage.Store
	llmClient   llm.Client
	events      kafka.Publisher
	maxTokens   int
}

// NewAnalysisService 创建一个新的 AnalysisService 实例。
func NewAnalysisService(
	submissions repository.SubmissionRepository,
	cache CacheService,
	guidelines *guideline.Store,
	blobs storage.Store,
	llmClient llm.Client,
	events kafka.Publisher,
	maxTokens int,
) AnalysisService {
	return &analysisService{
		submissions: submissions,
		cache:       cache,
		guidelines:  guidelines,
		blobs:       blobs,
		llmClient:   llmClient,
		events:      events,
		maxTokens:   maxTokens,
	}
}

func (s *analysisService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	var mime string
	if in.HasImage {
		m, err := validateUpload(in.Image, in.ImageSize)
		if err != nil {
			return nil, err
		}
		mime = m
	}

	message := normalizeInput(in.Message, MaxMessageChars)
	if !in.HasImage && message == "" {
		return nil, NewInputError("Please provide a photo or a question.")
	}
	if err := screenMessage(message); err != nil {
		log.Warnf("拦截疑似提示注入的分析请求")
		return nil, err
	}

	slug, guidelineContext := resolveGuideline(s.guidelines, in.GuidelineSlug)
	systemPrompt := AnalysisSystemPrompt(guidelineContext)

	var (
		analysis model.Analysis
		stored   *storedImage
		err      error
	)
	if in.HasImage {
		stored, err = saveImage(ctx, s.blobs, "submissions", in.Image, mime)
		if err != nil {
			return nil, err
		}
		analysis, err = s.analyzePhoto(ctx, systemPrompt, message, in.Image, mime)
	} else {
		analysis, err = s.answerText(ctx, systemPrompt, message, slug)
	}
	if err != nil {
		discardImage(s.blobs, stored)
		return nil, err
	}

	userContent := message
	if userContent == "" {
		userContent = DefaultPhotoMessage
	}
	now := time.Now().UTC()
	submission := &model.Submission{
		SessionMessages: datatypes.JSONSlice[model.ChatMessage]{
			{Role: llm.RoleUser, Content: userContent, Timestamp: now},
			{Role: llm.RoleAssistant, Content: analysis.Message, Timestamp: now},
		},
		ComplianceStatus: analysis.ComplianceStatus,
		AISummary:        analysis.Summary,
		IssuesFound:      datatypes.JSONSlice[model.Finding](analysis.Issues),
		GuidelineSlug:    model.StringPtr(slug),
	}
	if stored != nil {
		submission.PhotoPath = &stored.key
		submission.ThumbnailPath = model.StringPtr(stored.thumbKey)
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		discardImage(s.blobs, stored)
		return nil, fmt.Errorf("保存检查记录失败: %w", err)
	}
	log.Infow("合规检查完成", "submission_id", submission.ID, "status", analysis.ComplianceStatus, "photo", in.HasImage, "guideline", slug)

	if err := s.events.Publish(ctx, kafka.Event{
		Type:       kafka.EventSubmissionCreated,
		ID:         submission.ID,
		Attributes: map[string]string{"compliance_status": string(analysis.ComplianceStatus), "guideline_slug": slug},
	}); err != nil {
		log.Warnf("发布 submission.created 事件失败: %v", err)
	}

	return &AnalyzeResult{SubmissionID: submission.ID, Analysis: analysis}, nil
}

// answerText 回答纯文字问题，优先使用缓存。纯文字结果的状态总是 inconclusive。
func (s *analysisService) answerText(ctx context.Context, systemPrompt, message, slug string) (model.Analysis, error) {
	cached, err := s.cache.Lookup(ctx, message, slug)
	if err != nil {
		log.Warnf("查询问题缓存失败，按未命中处理: %v", err)
	}
	if cached != nil {
		log.Infow("问题缓存命中", "key", cached.CacheKey, "hits", cached.HitCount)
		return cached.Response.Data().AsTextOnly(), nil
	}

	raw, err := s.llmClient.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Text: systemPrompt},
		{Role: llm.RoleUser, Text: message},
	}, &llm.GenerationParams{MaxTokens: s.tokenLimit()})
	if err != nil {
		return model.Analysis{}, &UpstreamError{Op: "text analysis", Err: err}
	}
	parsed, err := model.ParseAnalysis(raw)
	if err != nil {
		return model.Analysis{}, &UpstreamError{Op: "text analysis", Err: err}
	}

	analysis := parsed.AsTextOnly()
	if err := s.cache.Store(ctx, message, slug, analysis); err != nil {
		log.Warnf("写入问题缓存失败: %v", err)
	}
	return analysis, nil
}

func (s *analysisService) analyzePhoto(ctx context.Context, systemPrompt, message string, image []byte, mime string) (model.Analysis, error) {
	text := DefaultPhotoMessage
	if message != "" {
		text = "Please analyze this photo of my property for HOA compliance. The homeowner adds: " + message
	}
	raw, err := s.llmClient.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Text: systemPrompt},
		{Role: llm.RoleUser, Text: text, Images: []llm.Image{{MIME: mime, Data: image}}},
	}, &llm.GenerationParams{MaxTokens: s.tokenLimit()})
	if err != nil {
		return model.Analysis{}, &UpstreamError{Op: "photo analysis", Err: err}
	}
	parsed, err := model.ParseAnalysis(raw)
	if err != nil {
		return model.Analysis{}, &UpstreamError{Op: "photo analysis", Err: err}
	}
	return *parsed, nil
}

func (s *analysisService) tokenLimit() *int {
	if s.maxTokens <= 0 {
		return nil
	}
	return llm.IntPtr(s.maxTokens)
}

// resolveGuideline 校验分类 slug 并加载全文上下文。未知 slug 视为未指定；全文缺失时不附加上下文。
func resolveGuideline(store *guideline.Store, slug string) (string, string) {
	if slug == "" {
		return "", ""
	}
	cat, ok := store.Lookup(slug)
	if !ok {
		log.Warnf("忽略未知的规范分类: %q", slug)
		return "", ""
	}
	text, err := store.PlainText(cat.Slug)
	if err != nil {
		if !errors.Is(err, guideline.ErrNotFound) {
			log.Warnf("读取规范全文失败: slug=%s, err=%v", cat.Slug, err)
		}
		return cat.Slug, ""
	}
	if text == "" {
		return cat.Slug, ""
	}
	return cat.Slug, GuidelineBlock(cat, text)
}
