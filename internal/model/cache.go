package model

import (
	"time"

	"gorm.io/datatypes"
)

// CachedResponse 是纯文字问题的缓存答案。
// 仅当 GuidelineVersion 与当前规范文本指纹一致时有效。
type CachedResponse struct {
	CacheKey         string                       `gorm:"primaryKey;type:char(64)" json:"cache_key"`
	GuidelineVersion *string                      `gorm:"type:varchar(64)" json:"guideline_version"`
	Response         datatypes.JSONType[Analysis] `gorm:"not null" json:"response"`
	HitCount         int                          `gorm:"not null" json:"hit_count"`
	CreatedAt        time.Time                    `json:"created_at"`
	LastHitAt        time.Time                    `json:"last_hit_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CachedResponse) TableName() string {
	return "question_cache"
}
