package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"gallery/photo-api/internal"
	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/retention"
	"gallery/photo-api/internal/service"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"
	"gallery/photo-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db     *gorm.DB
	deps   *internal.Deps
	assets *storage.Local
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := testutil.NewDB(t)
	s := store.NewMediaStore(gdb).WithClock(func() time.Time { return now })

	assets, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	m := metrics.New()
	d := &internal.Deps{
		DB:            gdb,
		Store:         s,
		Assets:        assets,
		Metrics:       m,
		PublicURL:     "/storage",
		MaxUploadSize: 1 << 20,
		AllowedTypes:  []string{"image/png", "image/jpeg"},
	}

	d.Trash = service.NewTrashService(s, assets, retention.New(60, 7, "en"), service.TrashOptions{
		PublicURL: d.PublicURL,
		Metrics:   m,
	})
	d.Favorites = service.NewFavoriteService(s, m)
	d.Uploader = service.NewUploader(s, assets, m)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestID", "test")

		id, _ := strconv.ParseUint(c.GetHeader("X-User"), 10, 64)
		c.Set("userID", uint(id))
	})

	wrap := func(h func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
		return func(c *gin.Context) { h(c, d) }
	}

	r.GET("/media", wrap(MediaList))
	r.GET("/media/favorites", wrap(MediaFavorites))
	r.GET("/media/timeline", wrap(MediaTimeline))
	r.GET("/media/trash", wrap(MediaTrashList))
	r.POST("/media", wrap(MediaUpload))
	r.POST("/media/delete-batch", wrap(MediaDeleteBatch))
	r.POST("/media/restore-batch", wrap(MediaRestoreBatch))
	r.POST("/media/purge-batch", wrap(MediaPurgeBatch))
	r.POST("/media/favorite", wrap(MediaFavorite))
	r.GET("/media/:id/owns", wrap(MediaOwns))
	r.GET("/media/:id/download", wrap(MediaDownload))

	return &env{db: gdb, deps: d, assets: assets, router: r}
}

// media creates an item owned by ownerID with its file in local storage
func (e *env) media(t *testing.T, ownerID uint, name string) *model.MediaItem {
	t.Helper()

	m := testutil.Media(t, e.db, ownerID, name)
	require.NoError(t, e.assets.Put(context.Background(), m.FilePath, strings.NewReader("data of "+name), 0, m.MimeType))

	return m
}

func (e *env) do(t *testing.T, userID uint, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", strconv.FormatUint(uint64(userID), 10))

	return e.serve(t, req)
}

func (e *env) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}

	return w, out
}

func ids(items ...*model.MediaItem) gin.H {
	out := make([]uint, 0, len(items))
	for _, m := range items {
		out = append(out, m.ID)
	}

	return gin.H{"ids": out}
}

func TestBatchValidation(t *testing.T) {
	e := newEnv(t)

	tooMany := make([]uint, 501)
	for i := range tooMany {
		tooMany[i] = uint(i + 1)
	}

	tests := []struct {
		name string
		body any
	}{
		{"missing ids", gin.H{}},
		{"empty ids", gin.H{"ids": []uint{}}},
		{"zero id", gin.H{"ids": []uint{1, 0}}},
		{"negative id", gin.H{"ids": []int{-1}}},
		{"string id", gin.H{"ids": []string{"a"}}},
		{"too many", gin.H{"ids": tooMany}},
	}

	for _, path := range []string{"/media/delete-batch", "/media/restore-batch", "/media/purge-batch"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.name, func(t *testing.T) {
				w, body := e.do(t, 1, http.MethodPost, path, tt.body)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "test", body["requestID"])
			})
		}
	}
}

func TestDeleteRestoreBatch(t *testing.T) {
	e := newEnv(t)

	a := e.media(t, 1, "a.jpg")
	b := e.media(t, 1, "b.jpg")
	other := e.media(t, 2, "c.jpg")

	w, body := e.do(t, 1, http.MethodPost, "/media/delete-batch", ids(a, b, other))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, "Moved 2 items to the trash. You have 60 days to restore them.", body["message"])

	// The other user's item stays where it is
	assert.EqualValues(t, 1, testutil.Count(t, e.db, &model.MediaItem{}, "owner_id = ? AND deleted_at IS NULL", 2))

	_, body = e.do(t, 1, http.MethodGet, "/media/trash", nil)
	assert.EqualValues(t, 2, body["count"])

	w, body = e.do(t, 1, http.MethodPost, "/media/restore-batch", ids(a))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Restored 1 item.", body["message"])

	// Restoring an active item is a no-op
	_, body = e.do(t, 1, http.MethodPost, "/media/restore-batch", ids(a))
	assert.EqualValues(t, 0, body["count"])
}

func TestTrashList(t *testing.T) {
	e := newEnv(t)

	fresh := e.media(t, 1, "fresh.jpg")
	old := e.media(t, 1, "old.jpg")
	e.media(t, 1, "active.jpg")

	testutil.Trash(t, e.db, old, now.Add(-55*day))
	testutil.Trash(t, e.db, fresh, now.Add(-time.Hour))

	w, body := e.do(t, 1, http.MethodGet, "/media/trash", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])

	photos := body["photos"].([]any)
	require.Len(t, photos, 2)

	first := photos[0].(map[string]any)
	assert.EqualValues(t, fresh.ID, first["id"])
	assert.EqualValues(t, 60, first["days_remaining"])
	assert.Equal(t, false, first["is_expiring_soon"])
	assert.Equal(t, "/storage/"+fresh.FilePath, first["url"])

	second := photos[1].(map[string]any)
	assert.EqualValues(t, old.ID, second["id"])
	assert.EqualValues(t, 5, second["days_remaining"])
	assert.Equal(t, true, second["is_expiring_soon"])
	assert.Equal(t, "5 days left", second["expiration_message"])
}

func TestPurgeBatch(t *testing.T) {
	e := newEnv(t)

	a := e.media(t, 1, "a.jpg")
	b := e.media(t, 1, "b.jpg")
	active := e.media(t, 1, "active.jpg")
	testutil.AddToAlbum(t, e.db, a, 0)
	testutil.Trash(t, e.db, a, now.Add(-day))
	testutil.Trash(t, e.db, b, now.Add(-day))

	w, body := e.do(t, 1, http.MethodPost, "/media/purge-batch", ids(a, b, active))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])
	assert.Empty(t, body["errors"])
	assert.Equal(t, "Permanently deleted 2 items.", body["message"])

	assert.EqualValues(t, 0, testutil.Count(t, e.db, &model.MediaItem{}, "id IN ?", []uint{a.ID, b.ID}))
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &model.AlbumMedia{}, "media_item_id = ?", a.ID))
	assert.EqualValues(t, 1, testutil.Count(t, e.db, &model.MediaItem{}, "id = ? AND deleted_at IS NULL", active.ID))

	_, err := e.assets.Open(context.Background(), a.FilePath)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Everything is gone now, so nothing matches
	w, body = e.do(t, 1, http.MethodPost, "/media/purge-batch", ids(a, b))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestPurgeBatchOtherOwner(t *testing.T) {
	e := newEnv(t)

	m := e.media(t, 2, "a.jpg")
	testutil.Trash(t, e.db, m, now.Add(-day))

	w, _ := e.do(t, 1, http.MethodPost, "/media/purge-batch", ids(m))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 1, testutil.Count(t, e.db, &model.MediaItem{}, "id = ?", m.ID))
}

func TestFavorite(t *testing.T) {
	e := newEnv(t)

	a := e.media(t, 1, "a.jpg")
	b := e.media(t, 1, "b.jpg")
	other := e.media(t, 2, "c.jpg")

	w, body := e.do(t, 1, http.MethodPost, "/media/favorite", gin.H{"ids": []uint{a.ID, b.ID}, "is_favorite": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, true, body["is_favorite"])
	assert.Equal(t, "Added 2 items to favorites.", body["message"])

	_, body = e.do(t, 1, http.MethodGet, "/media/favorites", nil)
	assert.EqualValues(t, 2, body["count"])

	w, body = e.do(t, 1, http.MethodPost, "/media/favorite", gin.H{"ids": []uint{a.ID, other.ID}, "is_favorite": false})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{float64(other.ID)}, body["invalid_ids"])

	// Nothing changed
	assert.EqualValues(t, 2, testutil.Count(t, e.db, &model.MediaItem{}, "owner_id = ? AND is_favorite = ?", 1, true))

	w, body = e.do(t, 1, http.MethodPost, "/media/favorite", gin.H{"ids": []uint{a.ID}, "is_favorite": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Removed 1 item from favorites.", body["message"])
}

func TestFavoriteDuplicateIDs(t *testing.T) {
	e := newEnv(t)
	a := e.media(t, 1, "a.jpg")

	w, body := e.do(t, 1, http.MethodPost, "/media/favorite", gin.H{"ids": []uint{a.ID, a.ID}, "is_favorite": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Added 1 item to favorites.", body["message"])
}

func TestFavoriteConstraintViolation(t *testing.T) {
	e := newEnv(t)
	a := e.media(t, 1, "a.jpg")

	err := e.db.Callback().Update().Before("gorm:update").Register("test:duplicate", func(tx *gorm.DB) {
		tx.AddError(gorm.ErrDuplicatedKey)
	})
	require.NoError(t, err)

	w, body := e.do(t, 1, http.MethodPost, "/media/favorite", gin.H{"ids": []uint{a.ID}, "is_favorite": true})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "test", body["requestID"])
	assert.NotEqual(t, "Internal server error", body["error"])

	assert.Zero(t, testutil.Count(t, e.db, &model.MediaItem{}, "is_favorite = ?", true))
}

func TestFavoriteRequiresFlag(t *testing.T) {
	e := newEnv(t)
	a := e.media(t, 1, "a.jpg")

	w, _ := e.do(t, 1, http.MethodPost, "/media/favorite", ids(a))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwns(t *testing.T) {
	e := newEnv(t)

	mine := e.media(t, 1, "a.jpg")
	theirs := e.media(t, 2, "b.jpg")

	w, body := e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/owns", mine.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["owns"])

	w, body = e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/owns", theirs.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["owns"])

	w, _ = e.do(t, 1, http.MethodGet, "/media/abc/owns", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownload(t *testing.T) {
	e := newEnv(t)

	m := e.media(t, 1, "holiday.jpg")

	w, _ := e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/download", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=holiday.jpg", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "data of holiday.jpg", w.Body.String())

	w, _ = e.do(t, 2, http.MethodGet, fmt.Sprintf("/media/%d/download", m.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	testutil.Trash(t, e.db, m, now)
	w, _ = e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/download", m.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadRemoteAndMissing(t *testing.T) {
	e := newEnv(t)

	remote := testutil.Media(t, e.db, 1, "remote.jpg")
	require.NoError(t, e.db.Model(remote).Update("file_path", "https://cdn.example.com/remote.jpg").Error)

	w, _ := e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/download", remote.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := testutil.Media(t, e.db, 1, "missing.jpg")
	w, _ = e.do(t, 1, http.MethodGet, fmt.Sprintf("/media/%d/download", missing.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndTimeline(t *testing.T) {
	e := newEnv(t)

	a := e.media(t, 1, "a.jpg")
	b := e.media(t, 1, "b.jpg")
	c := e.media(t, 1, "c.jpg")
	e.media(t, 2, "other.jpg")

	march := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, e.db.Model(b).Update("taken_at", march).Error)
	testutil.Trash(t, e.db, c, now)

	w, body := e.do(t, 1, http.MethodGet, "/media?sort=az", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	photos := body["photos"].([]any)
	assert.EqualValues(t, a.ID, photos[0].(map[string]any)["id"])

	w, body = e.do(t, 1, http.MethodGet, "/media/timeline?group=month", nil)
	require.Equal(t, http.StatusOK, w.Code)

	groups := body["groups"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03", groups[0].(map[string]any)["key"])
	assert.Equal(t, "2026-01", groups[1].(map[string]any)["key"])
}

func TestListValidation(t *testing.T) {
	e := newEnv(t)

	for _, q := range []string{"page=-1", "page=x", "limit=0", "limit=251", "sort=random"} {
		w, _ := e.do(t, 1, http.MethodGet, "/media?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w, _ := e.do(t, 1, http.MethodGet, "/media/timeline?group=week", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func pngImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User", "1")

	return req
}

func TestUpload(t *testing.T) {
	e := newEnv(t)

	w, body := e.serve(t, upload(t, map[string][]byte{"sunset.png": pngImage(t)}))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, body["count"])

	photo := body["photos"].([]any)[0].(map[string]any)
	assert.Equal(t, "sunset.png", photo["original_filename"])
	assert.Equal(t, "image/png", photo["mime_type"])
	assert.EqualValues(t, 40, photo["width"])
	assert.Equal(t, false, photo["is_favorite"])
	assert.Nil(t, photo["deleted_at"])
	assert.NotEmpty(t, photo["thumbnail_url"])

	assert.EqualValues(t, 1, testutil.Count(t, e.db, &model.MediaItem{}, "owner_id = ?", 1))
}

func TestUploadRejected(t *testing.T) {
	e := newEnv(t)

	w, _ := e.serve(t, upload(t, map[string][]byte{"notes.txt": []byte("plain text, not an image")}))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w, _ = e.serve(t, upload(t, map[string][]byte{"big.png": bytes.Repeat([]byte{0}, 2<<20)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w, _ = e.serve(t, upload(t, map[string][]byte{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.EqualValues(t, 0, testutil.Count(t, e.db, &model.MediaItem{}, "1 = 1"))
}
