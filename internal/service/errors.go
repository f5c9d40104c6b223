// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
)

// InputError 表示客户端输入有误（缺少字段、图片非法、内容被拦截等），Message 原样返回给调用方。
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// NewInputError 创建一个新的 InputError。
func NewInputError(format string, args ...interface{}) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError 表示模型调用失败或输出无法解析。原因只记录日志，不返回给调用方。
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var (
	ErrSubmissionNotFound = errors.New("Submission not found")
	ErrReportNotFound     = errors.New("Report not found")
	ErrGuidelineNotFound  = errors.New("Guideline not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)
