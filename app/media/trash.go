package media

import (
	"fmt"
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

type batchRequest struct {
	IDs []uint `json:"ids"`
}

// bindBatch reads and checks the ids of a batch request. It writes the error
// response itself and returns false on failure.
func bindBatch(c *gin.Context) ([]uint, bool) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request body must be JSON with an ids array of positive integers")
		return nil, false
	}

	if err := validators.BatchIDsValidator(req.IDs); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	return req.IDs, true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

// MediaDeleteBatch moves items to the trash
func MediaDeleteBatch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	ids, ok := bindBatch(c)
	if !ok {
		return
	}

	n, err := d.Trash.SoftDelete(c.Request.Context(), userID, ids)
	if err != nil {
		abortWithError(c, err, "Failed to move items to trash")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   n,
		"message": fmt.Sprintf("Moved %d %s to the trash. You have %d days to restore them.",
			n, plural(n, "item", "items"), d.Trash.Policy().WindowDays),
	})
}

// MediaRestoreBatch takes items out of the trash
func MediaRestoreBatch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	ids, ok := bindBatch(c)
	if !ok {
		return
	}

	n, err := d.Trash.Restore(c.Request.Context(), userID, ids)
	if err != nil {
		abortWithError(c, err, "Failed to restore items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   n,
		"message": fmt.Sprintf("Restored %d %s.", n, plural(n, "item", "items")),
	})
}

// MediaPurgeBatch permanently deletes trashed items
func MediaPurgeBatch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	ids, ok := bindBatch(c)
	if !ok {
		return
	}

	res, err := d.Trash.Purge(c.Request.Context(), userID, ids)
	if err != nil {
		abortWithError(c, err, "Failed to purge items")
		return
	}

	deleted := res.DeletedCount()
	errs := res.Errors()

	if deleted == 0 && len(errs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success":   false,
			"error":     "No items found in the trash",
			"requestID": requestID,
		})
		return
	}

	if deleted == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"count":     0,
			"errors":    errs,
			"error":     "Failed to permanently delete the selected items",
			"requestID": requestID,
		})
		return
	}

	msg := fmt.Sprintf("Permanently deleted %d %s.", deleted, plural(deleted, "item", "items"))
	if len(errs) > 0 {
		msg += fmt.Sprintf(" %d %s occurred.", len(errs), plural(len(errs), "error", "errors"))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   deleted,
		"errors":  errs,
		"message": msg,
	})
}

// MediaTrashList returns the trash with the retention state of every item
func MediaTrashList(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	entries, err := d.Trash.ListTrash(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err, "Failed to list trash")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"photos":  entries,
		"count":   len(entries),
	})
}
