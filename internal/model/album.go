package model

import "time"

type Album struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID      uint    `gorm:"not null;index" json:"-"`
	Title        string  `gorm:"not null" json:"title"`
	Description  *string `json:"description,omitempty"`
	CoverMediaID *uint   `json:"cover_media_id,omitempty"`

	// Cover is cleared rather than blocking deletion of the media item
	Cover *MediaItem `gorm:"foreignKey:CoverMediaID;constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlbumMedia is the ordered album membership. The media side is RESTRICT so a
// media item can only be destroyed once it has been taken out of every album.
type AlbumMedia struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	AlbumID     uint      `gorm:"not null;index;uniqueIndex:idx_album_media,priority:1"`
	MediaItemID uint      `gorm:"not null;index;uniqueIndex:idx_album_media,priority:2"`
	Order       uint      `gorm:"not null;default:0"`
	AddedAt     time.Time `gorm:"not null"`

	Album     Album     `gorm:"constraint:OnDelete:CASCADE"`
	MediaItem MediaItem `gorm:"constraint:OnDelete:RESTRICT"`
}

func (AlbumMedia) TableName() string {
	return "album_media"
}
