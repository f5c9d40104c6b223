// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComplianceStatus 是一次合规检查的粗粒度结论。
type ComplianceStatus string

const (
	StatusCompliant      ComplianceStatus = "compliant"
	StatusNeedsAttention ComplianceStatus = "needs_attention"
	StatusViolation      ComplianceStatus = "violation"
	StatusInconclusive   ComplianceStatus = "inconclusive"
	StatusPending        ComplianceStatus = "pending"
)

// ChatMessage 代表会话历史中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Finding 是针对某个外观要素的单条判定。
type Finding struct {
	Element string `json:"element" validate:"required"`
	Status  string `json:"status" validate:"oneof=compliant needs_attention violation"`
	Detail  string `json:"detail"`
}

// Submission 是一次合规检查会话（照片或纯文字）。
// 状态与判定只在创建时写入一次，之后只有会话历史会增长。
type Submission struct {
	ID               string                           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PhotoPath        *string                          `gorm:"type:varchar(255)" json:"photo_path"`
	ThumbnailPath    *string                          `gorm:"type:varchar(255)" json:"thumbnail_path"`
	SessionMessages  datatypes.JSONSlice[ChatMessage] `gorm:"not null" json:"session_messages"`
	ComplianceStatus ComplianceStatus                 `gorm:"type:varchar(20);not null" json:"compliance_status"`
	AISummary        string                           `gorm:"type:text" json:"ai_summary"`
	IssuesFound      datatypes.JSONSlice[Finding]     `json:"issues_found"`
	GuidelineSlug    *string                          `gorm:"type:varchar(64)" json:"guideline_slug"`
	CreatedAt        time.Time                        `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Submission) TableName() string {
	return "submissions"
}

// BeforeCreate 在 ID 为空时生成 UUID。
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.ComplianceStatus == "" {
		s.ComplianceStatus = StatusPending
	}
	return nil
}
