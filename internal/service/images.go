package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoa-advisor-go/pkg/imagecheck"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/storage"
)

// storedImage 记录已写入存储的原图与缩略图，失败时用于清理。
type storedImage struct {
	key      string
	thumbKey string
}

// validateUpload 校验上传图片的文件头与大小，返回识别出的 MIME 类型。
func validateUpload(data []byte, size int64) (string, error) {
	header := data
	if len(header) > imagecheck.HeaderLen {
		header = header[:imagecheck.HeaderLen]
	}
	mime, err := imagecheck.Validate(header, size)
	if err != nil {
		return "", &InputError{Message: err.Error()}
	}
	return mime, nil
}

// saveImage 将原图写入 folder，并尽力生成缩略图；缩略图失败只记录日志。
func saveImage(ctx context.Context, blobs storage.Store, folder string, data []byte, mime string) (*storedImage, error) {
	key := storage.NewObjectKey(folder, imagecheck.Extension(mime))
	if err := blobs.Put(ctx, key, data, mime); err != nil {
		return nil, fmt.Errorf("保存照片失败: %w", err)
	}
	stored := &storedImage{key: key}

	thumb, err := storage.MakeThumbnail(data)
	if errors.Is(err, storage.ErrImageTooLarge) {
		log.Warnw("图片尺寸超过上限，跳过缩略图", "key", key, "err", err)
		return stored, nil
	}
	if err != nil {
		log.Warnf("生成缩略图失败: key=%s, err=%v", key, err)
		return stored, nil
	}
	thumbKey := storage.ThumbnailKey(key)
	if err := blobs.Put(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		log.Warnf("保存缩略图失败: key=%s, err=%v", thumbKey, err)
		return stored, nil
	}
	stored.thumbKey = thumbKey
	return stored, nil
}

// discardImage 删除本次请求已写入的文件。
func discardImage(blobs storage.Store, stored *storedImage) {
	if stored == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, key := range []string{stored.key, stored.thumbKey} {
		if key == "" {
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warnf("清理照片失败: key=%s, err=%v", key, err)
		}
	}
}
