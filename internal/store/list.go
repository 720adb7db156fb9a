package store

import (
	"context"
	"fmt"
	"slices"

	"gallery/photo-api/internal/apperr"
	"gallery/photo-api/internal/model"
)

const (
	DefaultLimit = 50
	MaxLimit     = 250
)

// AZ = A - Z as in alphabetic same for ZA
var SortOptions = []string{"newest", "oldest", "az", "za", "size-asc", "size-desc"}

var sortOrders = map[string]string{
	"newest":    "COALESCE(taken_at, uploaded_at) desc, uploaded_at desc, id desc",
	"oldest":    "COALESCE(taken_at, uploaded_at) asc, uploaded_at asc, id asc",
	"az":        "original_filename asc, id asc",
	"za":        "original_filename desc, id desc",
	"size-asc":  "file_size asc, id asc",
	"size-desc": "file_size desc, id desc",
}

type ListOptions struct {
	Page  int
	Limit int
	Sort  string
}

func (o ListOptions) normalize() (ListOptions, error) {
	if o.Sort == "" {
		o.Sort = "newest"
	}

	if !slices.Contains(SortOptions, o.Sort) {
		return o, apperr.New(apperr.InvalidInput, "Invalid sorting option", nil)
	}

	if o.Page < 0 {
		o.Page = 0
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	o.Limit = min(o.Limit, MaxLimit)
	return o, nil
}

// ListActive pages through the owner's library, trashed items excluded
func (s *MediaStore) ListActive(ctx context.Context, ownerID uint, opts ListOptions) ([]model.MediaItem, error) {
	return s.list(ctx, ownerID, false, opts)
}

// ListFavorites pages through the owner's active favorites
func (s *MediaStore) ListFavorites(ctx context.Context, ownerID uint, opts ListOptions) ([]model.MediaItem, error) {
	return s.list(ctx, ownerID, true, opts)
}

func (s *MediaStore) list(ctx context.Context, ownerID uint, favorites bool, opts ListOptions) ([]model.MediaItem, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if favorites {
		q = q.Where("is_favorite = ?", true)
	}

	items := []model.MediaItem{}

	err = q.
		Order(sortOrders[opts.Sort]).
		Offset(opts.Page * opts.Limit).
		Limit(opts.Limit).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items, %w", err)
	}

	return items, nil
}
