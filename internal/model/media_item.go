// Package model defines database models
package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MediaItem is one uploaded photo or video. A non-null DeletedAt means the
// item sits in the trash and is hidden from every active-library query.
type MediaItem struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID uint `gorm:"not null;index;uniqueIndex:idx_owner_stored_filename,priority:1" json:"-"`

	OriginalFilename string `gorm:"not null" json:"original_filename"`
	// Name of the physical file, unique per owner so the same file is never registered twice
	StoredFilename string  `gorm:"not null;uniqueIndex:idx_owner_stored_filename,priority:2" json:"-"`
	FilePath       string  `gorm:"size:500;not null" json:"-"` // Storage key or a remote http(s) URL
	ThumbnailPath  *string `gorm:"size:500" json:"-"`
	FileSize       int64   `gorm:"not null" json:"file_size"`
	MimeType       string  `gorm:"size:100;not null" json:"mime_type"`
	Width          *int    `json:"width"`
	Height         *int    `json:"height"`

	TakenAt    *time.Time `gorm:"index" json:"taken_at"`
	UploadedAt time.Time  `gorm:"index;not null" json:"uploaded_at"`

	IsFavorite bool `gorm:"index;not null;default:false" json:"is_favorite"`
	IsArchived bool `gorm:"index;not null;default:false" json:"is_archived"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// CapturedAt falls back to the upload time when no capture time is known
func (m *MediaItem) CapturedAt() time.Time {
	if m.TakenAt != nil {
		return *m.TakenAt
	}

	return m.UploadedAt
}

// IsVideo reports whether the item is a video based on its MIME type
func (m *MediaItem) IsVideo() bool {
	return strings.HasPrefix(m.MimeType, "video/")
}

// IsRemote reports whether the primary asset is a remote URL reference instead
// of a file we own
func (m *MediaItem) IsRemote() bool {
	return IsRemotePath(m.FilePath)
}

// Lifecycle returns the tagged lifecycle state of a loaded item
func (m *MediaItem) Lifecycle() Lifecycle {
	if m.DeletedAt.Valid {
		since := m.DeletedAt.Time
		return Lifecycle{State: Trashed, Since: &since}
	}

	return Lifecycle{State: Active}
}

func IsRemotePath(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
