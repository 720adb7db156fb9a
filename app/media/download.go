package media

import (
	"errors"
	"mime"
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MediaDownload streams the original file of an active item
func MediaDownload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	id, err := validators.IDValidator(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid media ID")
		return
	}

	m, err := d.Store.GetActive(c.Request.Context(), userID, id)
	if err != nil {
		abortWithError(c, err, "Failed to fetch item for download")
		return
	}

	if m.IsRemote() {
		badRequest(c, "Remote items can't be downloaded")
		return
	}

	rc, err := d.Assets.Open(c.Request.Context(), m.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "File not found",
				"requestID": requestID,
			})

			zap.L().Warn("Asset of an active item is missing", zap.Uint("id", m.ID), zap.String("key", m.FilePath))
			return
		}

		abortWithError(c, err, "Failed to open asset")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, m.FileSize, m.MimeType, rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": m.OriginalFilename}),
	})
}
