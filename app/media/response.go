// Package media contains the handlers of the /api/media endpoints
package media

import (
	"errors"
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/internal/apperr"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// item is a media item as returned to clients
type item struct {
	model.MediaItem
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func view(d *internal.Deps, m model.MediaItem) item {
	it := item{
		MediaItem: m,
		URL:       storage.URLFor(d.PublicURL, m.FilePath),
	}

	if m.ThumbnailPath != nil {
		it.ThumbnailURL = storage.URLFor(d.PublicURL, *m.ThumbnailPath)
	}

	return it
}

func views(d *internal.Deps, items []model.MediaItem) []item {
	out := make([]item, 0, len(items))
	for _, m := range items {
		out = append(out, view(d, m))
	}

	return out
}

var statusByKind = map[apperr.Kind]int{
	apperr.InvalidInput:        http.StatusBadRequest,
	apperr.OwnershipViolation:  http.StatusForbidden,
	apperr.NotFound:            http.StatusNotFound,
	apperr.ConstraintViolation: http.StatusConflict,
}

// abortWithError writes the error response for err. Messages of known kinds
// are shown to the user, anything else is logged and hidden.
func abortWithError(c *gin.Context, err error, logMsg string) {
	requestID := c.MustGet("requestID").(string)

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			body := gin.H{
				"success":   false,
				"error":     appErr.Message,
				"requestID": requestID,
			}

			if appErr.Kind == apperr.OwnershipViolation {
				body["invalid_ids"] = appErr.IDs
			}

			c.AbortWithStatusJSON(status, body)
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success":   false,
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", requestID))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success":   false,
		"error":     msg,
		"requestID": c.MustGet("requestID").(string),
	})
}
