package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/internal/model"
	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 列表分页的默认值与上限。
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// AdminService 提供管理后台的登录与检查记录查询。
type AdminService interface {
	Login(username, password string) (string, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]model.Submission, int64, error)
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
}

type adminService struct {
	creds       config.AdminConfig
	jwtManager  *token.JWTManager
	submissions repository.SubmissionRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(creds config.AdminConfig, jwtManager *token.JWTManager, submissions repository.SubmissionRepository) AdminService {
	return &adminService{creds: creds, jwtManager: jwtManager, submissions: submissions}
}

// Login 校验管理员凭据并签发访问令牌。
func (s *adminService) Login(username, password string) (string, error) {
	if !s.checkCredentials(username, password) {
		log.Warnf("管理员登录失败: username=%q", username)
		return "", ErrInvalidCredentials
	}
	tok, err := s.jwtManager.GenerateToken(username, token.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	log.Infof("管理员登录成功: %s", username)
	return tok, nil
}

func (s *adminService) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	var passOK bool
	if s.creds.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	}
	return userOK && passOK && username != "" && password != ""
}

func (s *adminService) ListSubmissions(ctx context.Context, limit, offset int) ([]model.Submission, int64, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissions.List(ctx, limit, offset)
}

func (s *adminService) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}
