package repository

import (
	"fmt"

	"hoa-advisor-go/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 创建或更新 submissions、violation_reports 与 question_cache 三张表。
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Submission{}, &model.ViolationReport{}, &model.CachedResponse{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
