package model

import "time"

type Tag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type MediaTag struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	MediaItemID uint      `gorm:"not null;index;uniqueIndex:idx_media_tag,priority:1"`
	TagID       uint      `gorm:"not null;index;uniqueIndex:idx_media_tag,priority:2"`
	CreatedAt   time.Time `gorm:"not null"`

	MediaItem MediaItem `gorm:"constraint:OnDelete:CASCADE"`
	Tag       Tag       `gorm:"constraint:OnDelete:CASCADE"`
}

func (MediaTag) TableName() string {
	return "media_tags"
}

type Person struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Person) TableName() string {
	return "people"
}

type MediaPerson struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MediaItemID uint   `gorm:"not null;index;uniqueIndex:idx_media_person,priority:1"`
	PersonID    uint   `gorm:"not null;index;uniqueIndex:idx_media_person,priority:2"`
	Face        string // JSON encoded {x, y, width, height}
	Confidence  *float64
	CreatedAt   time.Time `gorm:"not null"`

	MediaItem MediaItem `gorm:"constraint:OnDelete:CASCADE"`
	Person    Person    `gorm:"constraint:OnDelete:CASCADE"`
}

func (MediaPerson) TableName() string {
	return "media_people"
}
