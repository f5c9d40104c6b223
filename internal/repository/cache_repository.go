package repository

import (
	"context"
	"time"

	"hoa-advisor-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository 接口定义了问答缓存表的操作。
type CacheRepository interface {
	Find(ctx context.Context, key string) (*model.CachedResponse, error)
	Upsert(ctx context.Context, entry *model.CachedResponse) error
	Delete(ctx context.Context, key string) error
	RecordHit(ctx context.Context, key string, at time.Time) error
}

type cacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository 创建一个新的 CacheRepository 实例。
func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db}
}

// Find 按缓存键查询，不存在时返回 gorm.ErrRecordNotFound。
func (r *cacheRepository) Find(ctx context.Context, key string) (*model.CachedResponse, error) {
	var entry model.CachedResponse
	if err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert 写入或整体替换一条缓存。
func (r *cacheRepository) Upsert(ctx context.Context, entry *model.CachedResponse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			UpdateAll: true,
		}).
		Create(entry).Error
}

// Delete 删除一条缓存。
func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&model.CachedResponse{}).Error
}

// RecordHit 以单条 UPDATE 语句递增命中次数并刷新最近命中时间。
func (r *cacheRepository) RecordHit(ctx context.Context, key string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CachedResponse{}).
		Where("cache_key = ?", key).
		Updates(map[string]interface{}{
			"hit_count":   gorm.Expr("hit_count + ?", 1),
			"last_hit_at": at,
		}).Error
}
