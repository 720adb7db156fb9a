package media

import (
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

// MediaOwns checks if the caller owns an active item
func MediaOwns(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	id, err := validators.IDValidator(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid media ID")
		return
	}

	owns, err := d.Store.Owns(c.Request.Context(), userID, id)
	if err != nil {
		abortWithError(c, err, "Failed to check if user owns an item")
		return
	}

	if owns {
		c.JSON(http.StatusOK, gin.H{"owns": true})
		return
	}

	c.JSON(http.StatusForbidden, gin.H{"owns": false})
}
