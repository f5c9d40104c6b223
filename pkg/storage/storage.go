// Package storage 提供上传图片的写一次、按路径读取的 blob 存储。
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"hoa-advisor-go/internal/config"

	"github.com/google/uuid"
)

var (
	// ErrNotFound 表示对象不存在。
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey 表示路径包含上级目录片段、NUL 字符或空片段。
	ErrInvalidKey = errors.New("invalid object key")
)

// Store 是上传文件的存储后端。
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// 可对外提供的图片扩展名。
var servableTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// NewObjectKey 在 folder 下生成随机文件名，扩展名由服务端识别的格式决定。
func NewObjectKey(folder, ext string) string {
	return folder + "/" + uuid.NewString() + "." + ext
}

// ThumbnailKey 返回对象对应缩略图的 key。
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb.jpg"
}

// CleanKey 校验客户端给出的相对路径，拒绝任何包含 ".." 或 NUL 的片段。
func CleanKey(raw string) (string, error) {
	raw = strings.TrimPrefix(raw, "/")
	if raw == "" {
		return "", ErrInvalidKey
	}
	segments := strings.Split(raw, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || strings.Contains(seg, "..") || strings.ContainsRune(seg, 0) || strings.ContainsRune(seg, '\\') {
			return "", ErrInvalidKey
		}
	}
	return strings.Join(segments, "/"), nil
}

// ContentTypeFor 返回可对外提供的图片类型；非图片扩展名返回 false。
func ContentTypeFor(key string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	ct, ok := servableTypes[ext]
	return ct, ok
}

// NewFromConfig 根据配置创建存储后端。
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIO)
	case "local", "":
		return NewLocalStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
