package repository

import (
	"context"

	"hoa-advisor-go/internal/model"

	"gorm.io/gorm"
)

// ReportRepository 接口定义了违规举报的数据持久化操作。
type ReportRepository interface {
	Create(ctx context.Context, report *model.ViolationReport) error
	List(ctx context.Context) ([]model.ViolationReport, error)
	Update(ctx context.Context, id string, status *model.ReportStatus, adminNotes *string) (*model.ViolationReport, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建一个新的 ReportRepository 实例。
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create 插入一条新的举报。
func (r *reportRepository) Create(ctx context.Context, report *model.ViolationReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// List 按创建时间倒序返回全部举报。
func (r *reportRepository) List(ctx context.Context) ([]model.ViolationReport, error) {
	var reports []model.ViolationReport
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// Update 只修改传入的非 nil 字段（COALESCE 语义），返回更新后的记录。
func (r *reportRepository) Update(ctx context.Context, id string, status *model.ReportStatus, adminNotes *string) (*model.ViolationReport, error) {
	var updated *model.ViolationReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ViolationReport
		if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{}
		if status != nil {
			changes["status"] = *status
		}
		if adminNotes != nil {
			changes["admin_notes"] = *adminNotes
		}
		if len(changes) > 0 {
			if err := tx.Model(&model.ViolationReport{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return err
			}
		}
		var fresh model.ViolationReport
		if err := tx.Where("id = ?", id).First(&fresh).Error; err != nil {
			return err
		}
		updated = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
