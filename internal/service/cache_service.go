package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"hoa-advisor-go/internal/model"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// cacheKeyVersion 变更后旧缓存自然失效。
const cacheKeyVersion = "v1"

// VersionSource 提供规范文本的当前指纹。
type VersionSource interface {
	Version(slug string) string
}

// CacheService 缓存纯文字问题的分析结果。
type CacheService interface {
	Lookup(ctx context.Context, question, slug string) (*model.CachedResponse, error)
	Store(ctx context.Context, question, slug string, analysis model.Analysis) error
}

type cacheService struct {
	repo     repository.CacheRepository
	versions VersionSource
	now      func() time.Time
}

// NewCacheService 创建一个新的 CacheService 实例。
func NewCacheService(repo repository.CacheRepository, versions VersionSource) CacheService {
	return &cacheService{repo: repo, versions: versions, now: time.Now}
}

// NormalizeQuestion 统一大小写与空白，使措辞相同的问题命中同一条缓存。
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// CacheKey 由规范化问题和分类 slug 计算缓存键。
func CacheKey(question, slug string) string {
	sum := sha256.Sum256([]byte(cacheKeyVersion + "|" + NormalizeQuestion(question) + "|" + slug))
	return hex.EncodeToString(sum[:])
}

func (s *cacheService) currentVersion(slug string) *string {
	return model.StringPtr(s.versions.Version(slug))
}

// Lookup 返回有效的缓存条目并记录一次命中；未命中或版本过期时返回 nil。
func (s *cacheService) Lookup(ctx context.Context, question, slug string) (*model.CachedResponse, error) {
	key := CacheKey(question, slug)
	entry, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if model.Deref(entry.GuidelineVersion) != model.Deref(s.currentVersion(slug)) {
		log.Infof("缓存版本过期，删除条目: key=%s", key)
		if err := s.repo.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	at := s.now()
	if err := s.repo.RecordHit(ctx, key, at); err != nil {
		return nil, err
	}
	entry.HitCount++
	entry.LastHitAt = at
	return entry, nil
}

// Store 写入或替换一条缓存，命中计数归零。
func (s *cacheService) Store(ctx context.Context, question, slug string, analysis model.Analysis) error {
	at := s.now()
	return s.repo.Upsert(ctx, &model.CachedResponse{
		CacheKey:         CacheKey(question, slug),
		GuidelineVersion: s.currentVersion(slug),
		Response:         datatypes.NewJSONType(analysis),
		HitCount:         0,
		CreatedAt:        at,
		LastHitAt:        at,
	})
}
