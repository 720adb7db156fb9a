package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/retention"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"
	"gallery/photo-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// memAssets is an in-memory asset store that can be told to fail deletes
type memAssets struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  map[string]error
	deleted []string
}

func newMemAssets() *memAssets {
	return &memAssets{
		objects: map[string][]byte{},
		failOn:  map[string]error{},
	}
}

func (m *memAssets) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = b
	return nil
}

func (m *memAssets) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return io.NopCloser(strings.NewReader(string(b))), nil
}

func (m *memAssets) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failOn[key]; ok {
		return err
	}

	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *memAssets) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok
}

type env struct {
	db     *gorm.DB
	store  *store.MediaStore
	assets *memAssets
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := testutil.NewDB(t)

	return &env{
		db:     gdb,
		store:  store.NewMediaStore(gdb).WithClock(func() time.Time { return now }),
		assets: newMemAssets(),
	}
}

func (e *env) trash(policy AssetPolicy) *TrashService {
	return NewTrashService(e.store, e.assets, retention.New(60, 7, "en"), TrashOptions{
		AssetPolicy: policy,
		PublicURL:   "/storage",
		Metrics:     metrics.New(),
	})
}

// media creates an item whose files exist in the asset store
func (e *env) media(t *testing.T, ownerID uint, name string) *model.MediaItem {
	t.Helper()

	m := testutil.Media(t, e.db, ownerID, name)

	thumb := "thumbs/" + m.StoredFilename
	require.NoError(t, e.db.Model(m).Update("thumbnail_path", thumb).Error)
	m.ThumbnailPath = &thumb

	e.assets.objects[m.FilePath] = []byte("file")
	e.assets.objects[thumb] = []byte("thumb")

	return m
}

func (e *env) trashed(t *testing.T, ownerID uint, name string, age time.Duration) *model.MediaItem {
	t.Helper()

	m := e.media(t, ownerID, name)
	testutil.Trash(t, e.db, m, now.Add(-age))
	return m
}

var errDisk = errors.New("input/output error")
