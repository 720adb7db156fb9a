package internal

import (
	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/service"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"

	"gorm.io/gorm"
)

// Deps is handed to every handler
type Deps struct {
	DB        *gorm.DB
	Store     *store.MediaStore
	Assets    storage.AssetStore
	Trash     *service.TrashService
	Favorites *service.FavoriteService
	Uploader  *service.Uploader
	Metrics   *metrics.Metrics

	// PublicURL is prepended to storage keys in responses
	PublicURL     string
	MaxUploadSize int64
	AllowedTypes  []string
}
