// Package testutil holds fixtures shared by package tests
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gallery/photo-api/db"
	"gallery/photo-api/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewDB returns a migrated in-memory SQLite database with foreign keys
// enforced, private to the calling test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	gdb, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	// One connection keeps the in-memory database alive and avoids
	// shared-cache table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return gdb
}

// Media inserts an active item owned by ownerID
func Media(t *testing.T, gdb *gorm.DB, ownerID uint, name string) *model.MediaItem {
	t.Helper()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := &model.MediaItem{
		OwnerID:          ownerID,
		OriginalFilename: name,
		StoredFilename:   fmt.Sprintf("%d_%s", ownerID, name),
		FilePath:         fmt.Sprintf("photos/%d/%s", ownerID, name),
		FileSize:         1024,
		MimeType:         "image/jpeg",
		UploadedAt:       now,
	}

	require.NoError(t, gdb.Omit(clause.Associations).Create(m).Error)
	return m
}

// Trash marks an item as deleted at the given time
func Trash(t *testing.T, gdb *gorm.DB, m *model.MediaItem, at time.Time) {
	t.Helper()

	err := gdb.Unscoped().
		Model(&model.MediaItem{}).
		Where("id = ?", m.ID).
		Update("deleted_at", at).
		Error
	require.NoError(t, err)

	m.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

// AddToAlbum creates an album for the item owner (if albumID is 0) and links the item
func AddToAlbum(t *testing.T, gdb *gorm.DB, m *model.MediaItem, albumID uint) uint {
	t.Helper()

	if albumID == 0 {
		a := &model.Album{OwnerID: m.OwnerID, Title: "Album"}
		require.NoError(t, gdb.Omit(clause.Associations).Create(a).Error)
		albumID = a.ID
	}

	link := &model.AlbumMedia{AlbumID: albumID, MediaItemID: m.ID, AddedAt: time.Now()}
	require.NoError(t, gdb.Omit(clause.Associations).Create(link).Error)

	return albumID
}

// Tag links the item to a new tag and a new person
func Tag(t *testing.T, gdb *gorm.DB, m *model.MediaItem) {
	t.Helper()

	tag := &model.Tag{OwnerID: m.OwnerID, Name: "beach"}
	require.NoError(t, gdb.Omit(clause.Associations).Create(tag).Error)
	require.NoError(t, gdb.Omit(clause.Associations).Create(&model.MediaTag{
		MediaItemID: m.ID,
		TagID:       tag.ID,
		CreatedAt:   time.Now(),
	}).Error)

	p := &model.Person{OwnerID: m.OwnerID, Name: "Mai"}
	require.NoError(t, gdb.Omit(clause.Associations).Create(p).Error)
	require.NoError(t, gdb.Omit(clause.Associations).Create(&model.MediaPerson{
		MediaItemID: m.ID,
		PersonID:    p.ID,
		CreatedAt:   time.Now(),
	}).Error)
}

// Count returns the number of rows of a model matching the condition,
// including soft deleted ones
func Count(t *testing.T, gdb *gorm.DB, m any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gdb.Unscoped().Model(m).Where(query, args...).Count(&n).Error)
	return n
}
