package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Uploader struct {
	Store   *store.MediaStore
	Assets  storage.AssetStore
	Metrics *metrics.Metrics
}

func NewUploader(s *store.MediaStore, assets storage.AssetStore, m *metrics.Metrics) *Uploader {
	return &Uploader{
		Store:   s,
		Assets:  assets,
		Metrics: m,
	}
}

// Upload describes one checked file ready to be stored
type Upload struct {
	Name     string
	Body     io.ReadSeeker
	Size     int64
	MimeType string
	// Ext is used when the original name has no extension
	Ext string
}

// Do stores the file, builds a thumbnail for images and registers the new
// item. Files already stored are removed again if the item can't be created.
func (u *Uploader) Do(ctx context.Context, ownerID uint, up Upload) (*model.MediaItem, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))
	if ext == "" {
		ext = up.Ext
	}

	id := uuid.NewString()
	stored := id + ext
	key := fmt.Sprintf("photos/%d/%s", ownerID, stored)

	if err := u.Assets.Put(ctx, key, up.Body, up.Size, up.MimeType); err != nil {
		return nil, fmt.Errorf("failed to store file, %w", err)
	}

	uploadedKeys := []string{key}

	now := u.Store.Now()
	item := &model.MediaItem{
		OwnerID:          ownerID,
		OriginalFilename: up.Name,
		StoredFilename:   stored,
		FilePath:         key,
		FileSize:         up.Size,
		MimeType:         up.MimeType,
		TakenAt:          &now,
		UploadedAt:       now,
	}

	if strings.HasPrefix(up.MimeType, "image/") {
		thumbKey, err := u.thumbnail(ctx, ownerID, id, up.Body, item)
		if err != nil {
			// Items without a preview are still usable
			zap.L().Warn("Failed to create thumbnail", zap.String("key", key), zap.Error(err))
		} else {
			item.ThumbnailPath = &thumbKey
			uploadedKeys = append(uploadedKeys, thumbKey)
		}
	}

	if err := u.Store.Create(ctx, item); err != nil {
		for _, k := range uploadedKeys {
			if err := u.Assets.Delete(context.Background(), k); err != nil {
				zap.L().Error("Failed to cleanup after failed upload", zap.String("key", k), zap.Error(err))
			} else {
				zap.L().Debug("Cleaned up after failed upload", zap.String("key", k))
			}
		}

		return nil, err
	}

	u.Metrics.Uploaded()
	return item, nil
}

func (u *Uploader) thumbnail(ctx context.Context, ownerID uint, id string, body io.ReadSeeker, item *model.MediaItem) (string, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	t, err := MakeThumbnail(body)
	if err != nil {
		return "", err
	}

	item.Width = &t.Width
	item.Height = &t.Height

	key := fmt.Sprintf("thumbs/%d/%s.jpg", ownerID, id)
	if err := u.Assets.Put(ctx, key, bytes.NewReader(t.Data), int64(len(t.Data)), "image/jpeg"); err != nil {
		return "", fmt.Errorf("failed to store thumbnail, %w", err)
	}

	return key, nil
}
