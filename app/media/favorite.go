package media

import (
	"fmt"
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

type favoriteRequest struct {
	IDs        []uint `json:"ids"`
	IsFavorite *bool  `json:"is_favorite" binding:"required"`
}

// MediaFavorite sets the favorite flag on a batch of items, all or none
func MediaFavorite(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request body must contain ids and is_favorite")
		return
	}

	if err := validators.BatchIDsValidator(req.IDs); err != nil {
		badRequest(c, err.Error())
		return
	}

	n, err := d.Favorites.Toggle(c.Request.Context(), userID, req.IDs, *req.IsFavorite)
	if err != nil {
		abortWithError(c, err, "Failed to update favorites")
		return
	}

	msg := fmt.Sprintf("Added %d %s to favorites.", n, plural(n, "item", "items"))
	if !*req.IsFavorite {
		msg = fmt.Sprintf("Removed %d %s from favorites.", n, plural(n, "item", "items"))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       n,
		"is_favorite": *req.IsFavorite,
		"message":     msg,
	})
}
