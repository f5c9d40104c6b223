package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth 是管理端缩略图的宽度，高度按比例缩放。
const ThumbnailWidth = 200

// MaxThumbnailPixels 是生成缩略图时允许解码的最大像素数（约 40MP）。
const MaxThumbnailPixels = 40_000_000

// ErrImageTooLarge 表示图片像素数超过 MaxThumbnailPixels，不做解码。
var ErrImageTooLarge = errors.New("image dimensions exceed thumbnail limit")

// MakeThumbnail 将图片缩放为 JPEG 缩略图。无法解码的格式（例如 WebP）返回错误；
// 先读取图片头部的尺寸，超过像素上限时直接返回 ErrImageTooLarge。
func MakeThumbnail(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxThumbnailPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
