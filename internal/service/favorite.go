package service

import (
	"context"

	"gallery/photo-api/internal/apperr"
	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/store"

	"go.uber.org/zap"
)

type FavoriteService struct {
	store   *store.MediaStore
	metrics *metrics.Metrics
}

func NewFavoriteService(s *store.MediaStore, m *metrics.Metrics) *FavoriteService {
	return &FavoriteService{store: s, metrics: m}
}

// Toggle sets the favorite flag on every id or on none of them. Ids that are
// unknown, trashed or owned by someone else reject the whole request with an
// OwnershipViolation listing them. The returned count includes items that
// already had the value.
func (s *FavoriteService) Toggle(ctx context.Context, ownerID uint, ids []uint, value bool) (int, error) {
	ids = store.UniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperr.New(apperr.InvalidInput, "No items selected", nil)
	}

	err := s.store.Transaction(ctx, func(tx *store.MediaStore) error {
		items, err := tx.FindActive(ctx, ownerID, ids)
		if err != nil {
			return err
		}

		if len(items) < len(ids) {
			found := make(map[uint]struct{}, len(items))
			for _, it := range items {
				found[it.ID] = struct{}{}
			}

			invalid := []uint{}
			for _, id := range ids {
				if _, ok := found[id]; !ok {
					invalid = append(invalid, id)
				}
			}

			return apperr.Ownership(invalid)
		}

		_, err = tx.SetFavorite(ctx, ownerID, ids, value)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.OwnershipViolation) {
			zap.L().Warn("Rejected favorite update", zap.Uint("owner_id", ownerID), zap.Error(err))
		}

		return 0, apperr.FromDB(err)
	}

	s.metrics.FavoriteUpdated(len(ids))
	return len(ids), nil
}
