package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus 是违规举报的处理状态，只能由管理员修改。
type ReportStatus string

const (
	ReportPending       ReportStatus = "pending"
	ReportInvestigating ReportStatus = "investigating"
	ReportResolved      ReportStatus = "resolved"
)

// Valid 报告状态是否属于允许的枚举值。
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportInvestigating, ReportResolved:
		return true
	}
	return false
}

// ViolationReport 是一条匿名违规举报。不记录举报人的任何身份信息。
type ViolationReport struct {
	ID              string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyAddress string       `gorm:"type:varchar(500);not null" json:"property_address"`
	Description     string       `gorm:"type:text;not null" json:"description"`
	ReporterNotes   *string      `gorm:"type:text" json:"reporter_notes"`
	PhotoPath       *string      `gorm:"type:varchar(255)" json:"photo_path"`
	ThumbnailPath   *string      `gorm:"type:varchar(255)" json:"thumbnail_path"`
	Status          ReportStatus `gorm:"type:varchar(20);not null" json:"status"`
	AdminNotes      *string      `gorm:"type:text" json:"admin_notes"`
	CreatedAt       time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ViolationReport) TableName() string {
	return "violation_reports"
}

// BeforeCreate 在 ID 为空时生成 UUID。
func (r *ViolationReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return nil
}
