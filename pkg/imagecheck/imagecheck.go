// Package imagecheck 通过文件头魔数识别上传图片的真实格式。
package imagecheck

import (
	"bytes"
	"errors"
)

// MaxBytes 是单张图片允许的最大字节数。
const MaxBytes int64 = 10 * 1024 * 1024

// HeaderLen 是识别所有支持格式所需读取的文件头长度。
const HeaderLen = 12

var (
	ErrEmpty             = errors.New("File is empty.")
	ErrTooLarge          = errors.New("Image must be under 10 MB.")
	ErrUnsupportedFormat = errors.New("File does not appear to be a valid image (JPEG, PNG, GIF, or WebP).")
)

type signature struct {
	mime   string
	ext    string
	offset int
	magic  []byte
}

// 按顺序匹配，第一个命中的签名生效。
var signatures = []signature{
	{mime: "image/jpeg", ext: "jpg", offset: 0, magic: []byte{0xFF, 0xD8, 0xFF}},
	{mime: "image/png", ext: "png", offset: 0, magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{mime: "image/gif", ext: "gif", offset: 0, magic: []byte{0x47, 0x49, 0x46, 0x38}},
	// RIFF 容器中 "WEBP" 标记位于偏移 8
	{mime: "image/webp", ext: "webp", offset: 8, magic: []byte{0x57, 0x45, 0x42, 0x50}},
}

// Validate 根据文件头与声明的大小判定图片是否可接受，返回服务端识别出的 MIME 类型。
// 客户端提供的 Content-Type 不参与判定。
func Validate(header []byte, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmpty
	}
	if size > MaxBytes {
		return "", ErrTooLarge
	}
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(header) < end {
			continue
		}
		if bytes.Equal(header[sig.offset:end], sig.magic) {
			return sig.mime, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// Extension 返回 MIME 类型对应的存储扩展名，未知类型返回空字符串。
func Extension(mime string) string {
	for _, sig := range signatures {
		if sig.mime == mime {
			return sig.ext
		}
	}
	return ""
}
