// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"hoa-advisor-go/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionRepository 接口定义了合规检查会话的数据持久化操作。
type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	List(ctx context.Context, limit, offset int) ([]model.Submission, int64, error)
	UpdateMessages(ctx context.Context, id string, messages []model.ChatMessage) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建一个新的 SubmissionRepository 实例。
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create 插入一条新的会话记录。
func (r *submissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// FindByID 按 ID 查询会话，不存在时返回 gorm.ErrRecordNotFound。
func (r *submissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var submission model.Submission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// List 按创建时间倒序分页返回会话及总数。
func (r *submissionRepository) List(ctx context.Context, limit, offset int) ([]model.Submission, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Submission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var submissions []model.Submission
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error
	return submissions, total, err
}

// UpdateMessages 只覆盖会话历史字段，状态与判定保持不变。
func (r *submissionRepository) UpdateMessages(ctx context.Context, id string, messages []model.ChatMessage) error {
	res := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ?", id).
		Update("session_messages", datatypes.JSONSlice[model.ChatMessage](messages))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
