// Package store contains the owner scoped queries over media items. Every
// method takes the owner explicitly, ids owned by someone else are never
// matched and never reported.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery/photo-api/internal/apperr"
	"gallery/photo-api/internal/model"

	"gorm.io/gorm"
)

// errGone is returned inside a purge transaction when the row is no longer
// trashed (restored or purged by a concurrent request)
var errGone = errors.New("media item is no longer in the trash")

type MediaStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMediaStore(db *gorm.DB) *MediaStore {
	return &MediaStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of the store that reads the time from now
func (s *MediaStore) WithClock(now func() time.Time) *MediaStore {
	return &MediaStore{db: s.db, now: now}
}

func (s *MediaStore) Now() time.Time {
	return s.now()
}

// Transaction runs fn with a store bound to a single database transaction
func (s *MediaStore) Transaction(ctx context.Context, fn func(tx *MediaStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MediaStore{db: tx, now: s.now})
	})
}

// Create inserts a freshly uploaded item
func (s *MediaStore) Create(ctx context.Context, m *model.MediaItem) error {
	err := s.db.WithContext(ctx).Create(m).Error
	if err != nil {
		return apperr.FromDB(err)
	}

	return nil
}

// Get returns one item in any lifecycle state
func (s *MediaStore) Get(ctx context.Context, ownerID, id uint) (*model.MediaItem, error) {
	var m model.MediaItem

	err := s.db.WithContext(ctx).
		Unscoped().
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&m).
		Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return &m, nil
}

// GetActive returns one item that is not in the trash
func (s *MediaStore) GetActive(ctx context.Context, ownerID, id uint) (*model.MediaItem, error) {
	var m model.MediaItem

	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&m).
		Error
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	return &m, nil
}

// Owns reports whether the active item id belongs to ownerID
func (s *MediaStore) Owns(ctx context.Context, ownerID, id uint) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.MediaItem{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// FindActive returns the active items among ids
func (s *MediaStore) FindActive(ctx context.Context, ownerID uint, ids []uint) ([]model.MediaItem, error) {
	items := []model.MediaItem{}
	if len(ids) == 0 {
		return items, nil
	}

	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to find active items, %w", err)
	}

	return items, nil
}

// FindTrashed returns the trashed items among ids. A nil ids slice returns the
// whole trash, most recently deleted first.
func (s *MediaStore) FindTrashed(ctx context.Context, ownerID uint, ids []uint) ([]model.MediaItem, error) {
	items := []model.MediaItem{}
	if ids != nil && len(ids) == 0 {
		return items, nil
	}

	q := s.db.WithContext(ctx).
		Unscoped().
		Where("owner_id = ? AND deleted_at IS NOT NULL", ownerID)

	if ids != nil {
		q = q.Where("id IN ?", ids)
	}

	err := q.Order("deleted_at desc").Order("id desc").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find trashed items, %w", err)
	}

	return items, nil
}

// FindExpired returns trashed items of every owner deleted at or before cutoff
func (s *MediaStore) FindExpired(ctx context.Context, cutoff time.Time) ([]model.MediaItem, error) {
	items := []model.MediaItem{}

	err := s.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", cutoff).
		Order("deleted_at asc").
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired items, %w", err)
	}

	return items, nil
}

// SoftDelete moves the active items among ids to the trash and returns how
// many rows changed. Items already in the trash are not matched.
func (s *MediaStore) SoftDelete(ctx context.Context, ownerID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Unscoped().
		Model(&model.MediaItem{}).
		Where("owner_id = ? AND id IN ? AND deleted_at IS NULL", ownerID, ids).
		Update("deleted_at", s.now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to soft delete items, %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Restore takes the trashed items among ids out of the trash
func (s *MediaStore) Restore(ctx context.Context, ownerID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Unscoped().
		Model(&model.MediaItem{}).
		Where("owner_id = ? AND id IN ? AND deleted_at IS NOT NULL", ownerID, ids).
		Update("deleted_at", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to restore items, %w", res.Error)
	}

	return res.RowsAffected, nil
}

// SetFavorite sets the favorite flag of the active items among ids. Items
// already holding value are counted too.
func (s *MediaStore) SetFavorite(ctx context.Context, ownerID uint, ids []uint, value bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Model(&model.MediaItem{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Update("is_favorite", value)
	if res.Error != nil {
		return 0, apperr.FromDB(res.Error)
	}

	return res.RowsAffected, nil
}

// PurgeHooks attach asset handling to a purge. BeforeCommit runs inside the
// item's transaction once the row is deleted and rolls it back on error.
// AfterCommit runs once the row is gone, its error is reported but the row
// stays deleted.
type PurgeHooks struct {
	BeforeCommit func(m *model.MediaItem) error
	AfterCommit  func(m *model.MediaItem) error
}

// HardDelete permanently removes the trashed items among ids. Ids that are not
// owned by ownerID or not in the trash are dropped silently.
func (s *MediaStore) HardDelete(ctx context.Context, ownerID uint, ids []uint, hooks PurgeHooks) (*BatchResult, error) {
	items, err := s.FindTrashed(ctx, ownerID, UniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	// Keep the caller's order
	byID := make(map[uint]model.MediaItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	ordered := make([]model.MediaItem, 0, len(items))
	for _, id := range UniqueIDs(ids) {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}

	return s.HardDeleteItems(ctx, ordered, hooks), nil
}

// HardDeleteItems purges already loaded trashed items, each one in its own
// transaction so a failing item doesn't block the rest
func (s *MediaStore) HardDeleteItems(ctx context.Context, items []model.MediaItem, hooks PurgeHooks) *BatchResult {
	res := &BatchResult{Succeeded: []uint{}, Failures: []Failure{}}

	for i := range items {
		item := &items[i]

		err := s.purgeOne(ctx, item, hooks.BeforeCommit)
		if errors.Is(err, errGone) {
			continue
		}

		if err != nil {
			err = apperr.FromDB(err)
			res.Failures = append(res.Failures, Failure{ID: item.ID, Kind: apperr.KindOf(err), Err: err})
			continue
		}

		res.Succeeded = append(res.Succeeded, item.ID)

		if hooks.AfterCommit != nil {
			if err := hooks.AfterCommit(item); err != nil {
				res.Failures = append(res.Failures, Failure{ID: item.ID, Kind: apperr.KindOf(err), Err: err})
			}
		}
	}

	return res
}

func (s *MediaStore) purgeOne(ctx context.Context, item *model.MediaItem, beforeCommit func(*model.MediaItem) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Album membership restricts deletion of the item so it has to go first
		err := tx.Where("media_item_id = ?", item.ID).Delete(&model.AlbumMedia{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove album links, %w", err)
		}

		err = tx.Where("media_item_id = ?", item.ID).Delete(&model.MediaTag{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove tag links, %w", err)
		}

		err = tx.Where("media_item_id = ?", item.ID).Delete(&model.MediaPerson{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove person links, %w", err)
		}

		res := tx.Unscoped().
			Where("id = ? AND owner_id = ? AND deleted_at IS NOT NULL", item.ID, item.OwnerID).
			Delete(&model.MediaItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete item, %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return errGone
		}

		if beforeCommit != nil {
			return beforeCommit(item)
		}

		return nil
	})
}
