package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hoa-advisor-go/internal/model"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/llm"
	"hoa-advisor-go/pkg/log"

	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// Locker 为同一会话的续聊提供互斥。
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type redisLocker struct {
	client *redislock.Client
}

// NewRedisLocker 基于 redislock 创建分布式锁。
func NewRedisLocker(client *redislock.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warnf("释放会话锁失败: key=%s, err=%v", key, err)
		}
	}, nil
}

// ChatService 在已有检查会话上继续对话。
type ChatService interface {
	Continue(ctx context.Context, submissionID, message string) (string, error)
}

type chatService struct {
	submissions repository.SubmissionRepository
	guidelines  *guideline.Store
	llmClient   llm.Client
	locker      Locker
	lockTTL     time.Duration
	maxTokens   int
}

// NewChatService 创建一个新的 ChatService 实例。locker 为 nil 时并发续聊按最后写入为准。
func NewChatService(
	submissions repository.SubmissionRepository,
	guidelines *guideline.Store,
	llmClient llm.Client,
	locker Locker,
	lockTTL time.Duration,
	maxTokens int,
) ChatService {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &chatService{
		submissions: submissions,
		guidelines:  guidelines,
		llmClient:   llmClient,
		locker:      locker,
		lockTTL:     lockTTL,
		maxTokens:   maxTokens,
	}
}

// Continue 追加一轮问答。合规结论与判定列表不会被修改。
func (s *chatService) Continue(ctx context.Context, submissionID, message string) (string, error) {
	submissionID = strings.TrimSpace(submissionID)
	message = normalizeInput(message, MaxMessageChars)
	if submissionID == "" || message == "" {
		return "", NewInputError("submissionId and message are required.")
	}
	if err := screenMessage(message); err != nil {
		log.Warnf("拦截疑似提示注入的续聊请求: submission_id=%s", submissionID)
		return "", err
	}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, "lock:submission:"+submissionID, s.lockTTL)
		if err != nil {
			log.Warnf("获取会话锁失败，继续执行: submission_id=%s, err=%v", submissionID, err)
		} else {
			defer release()
		}
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSubmissionNotFound
		}
		return "", fmt.Errorf("查询检查记录失败: %w", err)
	}

	_, guidelineContext := resolveGuideline(s.guidelines, model.Deref(submission.GuidelineSlug))
	messages := make([]llm.Message, 0, len(submission.SessionMessages)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Text: ChatSystemPrompt(guidelineContext)})
	for _, m := range submission.SessionMessages {
		messages = append(messages, llm.Message{Role: m.Role, Text: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Text: message})

	var gen *llm.GenerationParams
	if s.maxTokens > 0 {
		gen = &llm.GenerationParams{MaxTokens: llm.IntPtr(s.maxTokens)}
	}
	raw, err := s.llmClient.Complete(ctx, messages, gen)
	if err != nil {
		return "", &UpstreamError{Op: "chat", Err: err}
	}
	reply := extractReply(raw)
	if reply == "" {
		return "", &UpstreamError{Op: "chat", Err: errors.New("empty reply")}
	}

	now := time.Now().UTC()
	history := make([]model.ChatMessage, 0, len(submission.SessionMessages)+2)
	history = append(history, submission.SessionMessages...)
	history = append(history,
		model.ChatMessage{Role: llm.RoleUser, Content: message, Timestamp: now},
		model.ChatMessage{Role: llm.RoleAssistant, Content: reply, Timestamp: now},
	)
	if err := s.submissions.UpdateMessages(ctx, submission.ID, history); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSubmissionNotFound
		}
		return "", fmt.Errorf("保存会话历史失败: %w", err)
	}
	return reply, nil
}

// extractReply 模型偶尔仍按分析格式回答，此时取其中的 message 字段。
func extractReply(raw string) string {
	if parsed, err := model.ParseAnalysis(raw); err == nil && parsed.Message != "" {
		return strings.TrimSpace(parsed.Message)
	}
	return strings.TrimSpace(raw)
}
