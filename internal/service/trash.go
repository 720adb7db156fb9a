package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gallery/photo-api/internal/apperr"
	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/retention"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"

	"go.uber.org/zap"
)

// AssetPolicy decides what a purge does when the files of an item can't be
// removed
type AssetPolicy string

const (
	// OrphanAssets deletes the row anyway and reports the leftover files
	OrphanAssets AssetPolicy = "orphan"
	// AbortOnAssetFailure keeps the row in the trash so the purge can be retried.
	// The files are removed before the item's transaction commits. If the
	// commit itself fails the row stays in the trash without its files, and a
	// later purge finishes it since missing files count as removed.
	AbortOnAssetFailure AssetPolicy = "abort"
)

func ParseAssetPolicy(s string) (AssetPolicy, error) {
	switch AssetPolicy(s) {
	case OrphanAssets, AbortOnAssetFailure:
		return AssetPolicy(s), nil
	case "":
		return OrphanAssets, nil
	}

	return "", fmt.Errorf("unknown asset failure policy %q", s)
}

type TrashOptions struct {
	AssetPolicy AssetPolicy
	// PublicURL is prepended to storage keys in listings
	PublicURL string
	Metrics   *metrics.Metrics
}

type TrashService struct {
	store  *store.MediaStore
	assets storage.AssetStore
	policy *retention.Policy
	opts   TrashOptions
}

// TrashEntry is a trashed item with its retention state computed at read time
type TrashEntry struct {
	model.MediaItem
	retention.Window
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func NewTrashService(s *store.MediaStore, assets storage.AssetStore, p *retention.Policy, opts TrashOptions) *TrashService {
	if opts.AssetPolicy == "" {
		opts.AssetPolicy = OrphanAssets
	}

	return &TrashService{
		store:  s,
		assets: assets,
		policy: p,
		opts:   opts,
	}
}

func (s *TrashService) Policy() *retention.Policy {
	return s.policy
}

// SoftDelete moves the caller's active items to the trash. Unknown ids and ids
// of other owners are ignored.
func (s *TrashService) SoftDelete(ctx context.Context, ownerID uint, ids []uint) (int, error) {
	n, err := s.store.SoftDelete(ctx, ownerID, store.UniqueIDs(ids))
	if err != nil {
		return 0, err
	}

	s.opts.Metrics.Trashed(int(n))
	zap.L().Debug("Moved items to trash", zap.Uint("owner_id", ownerID), zap.Int64("count", n))

	return int(n), nil
}

// Restore takes the caller's trashed items out of the trash
func (s *TrashService) Restore(ctx context.Context, ownerID uint, ids []uint) (int, error) {
	n, err := s.store.Restore(ctx, ownerID, store.UniqueIDs(ids))
	if err != nil {
		return 0, err
	}

	s.opts.Metrics.Restored(int(n))
	zap.L().Debug("Restored items from trash", zap.Uint("owner_id", ownerID), zap.Int64("count", n))

	return int(n), nil
}

// Purge permanently deletes the caller's trashed items. Active items, unknown
// ids and ids of other owners are dropped without error. Per item failures
// are part of the result.
func (s *TrashService) Purge(ctx context.Context, ownerID uint, ids []uint) (*store.BatchResult, error) {
	res, err := s.store.HardDelete(ctx, ownerID, ids, s.hooks(ctx))
	if err != nil {
		return nil, err
	}

	s.report(metrics.TriggerUser, res)
	return res, nil
}

// PurgeExpiredForAllUsers deletes every trashed item whose retention window
// has run out, across all owners
func (s *TrashService) PurgeExpiredForAllUsers(ctx context.Context) (*store.BatchResult, error) {
	now := s.store.Now()

	candidates, err := s.store.FindExpired(ctx, s.policy.Cutoff(now))
	if err != nil {
		return nil, err
	}

	eligible := make(map[uint]struct{}, len(candidates))
	for _, id := range s.policy.EligibleForPurge(candidates, now) {
		eligible[id] = struct{}{}
	}

	items := make([]model.MediaItem, 0, len(eligible))
	for _, it := range candidates {
		if _, ok := eligible[it.ID]; ok {
			items = append(items, it)
		}
	}

	res := s.store.HardDeleteItems(ctx, items, s.hooks(ctx))
	s.report(metrics.TriggerSchedule, res)

	return res, nil
}

// ListTrash returns the caller's trash, most recently deleted first
func (s *TrashService) ListTrash(ctx context.Context, ownerID uint) ([]TrashEntry, error) {
	items, err := s.store.FindTrashed(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}

	now := s.store.Now()
	entries := make([]TrashEntry, 0, len(items))

	for _, it := range items {
		e := TrashEntry{
			MediaItem: it,
			Window:    s.policy.Window(&it.DeletedAt.Time, now),
			URL:       storage.URLFor(s.opts.PublicURL, it.FilePath),
		}

		if it.ThumbnailPath != nil {
			e.ThumbnailURL = storage.URLFor(s.opts.PublicURL, *it.ThumbnailPath)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Status returns the lifecycle of one of the caller's items. Purged items no
// longer exist and are reported as NotFound.
func (s *TrashService) Status(ctx context.Context, ownerID, id uint) (model.Lifecycle, error) {
	m, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return model.Lifecycle{}, err
	}

	return m.Lifecycle(), nil
}

func (s *TrashService) hooks(ctx context.Context) store.PurgeHooks {
	del := func(m *model.MediaItem) error {
		return s.deleteAssets(ctx, m)
	}

	if s.opts.AssetPolicy == AbortOnAssetFailure {
		return store.PurgeHooks{BeforeCommit: del}
	}

	return store.PurgeHooks{AfterCommit: del}
}

// deleteAssets removes the primary file and the thumbnail. Remote references
// aren't ours to delete and missing files count as deleted.
func (s *TrashService) deleteAssets(ctx context.Context, m *model.MediaItem) error {
	var errs []error

	if m.FilePath != "" && !m.IsRemote() {
		if err := s.assets.Delete(ctx, m.FilePath); err != nil {
			errs = append(errs, err)
		}
	}

	if m.ThumbnailPath != nil && *m.ThumbnailPath != "" && !model.IsRemotePath(*m.ThumbnailPath) {
		if err := s.assets.Delete(ctx, *m.ThumbnailPath); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return apperr.AssetIO(m.ID, errors.Join(errs...))
	}

	return nil
}

func (s *TrashService) report(trigger string, res *store.BatchResult) {
	for _, f := range res.Failures {
		log, msg := zap.L().Error, "Failed to purge media item"
		if slices.Contains(res.Succeeded, f.ID) {
			log, msg = zap.L().Warn, "Purged media item but failed to remove its files"
		}

		log(msg,
			zap.Uint("media_id", f.ID),
			zap.String("kind", string(f.Kind)),
			zap.String("trigger", trigger),
			zap.Error(f.Err),
		)

		s.opts.Metrics.PurgeFailed(string(f.Kind))
	}

	s.opts.Metrics.Purged(trigger, res.DeletedCount())

	zap.L().Info("Purge finished",
		zap.String("trigger", trigger),
		zap.Int("purged", res.DeletedCount()),
		zap.Int("errors", len(res.Failures)),
	)
}
