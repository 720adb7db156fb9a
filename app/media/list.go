package media

import (
	"net/http"
	"strconv"
	"strings"

	"gallery/photo-api/internal"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/store"

	"github.com/gin-gonic/gin"
)

var groupLayouts = map[string]string{
	"day":   "2006-01-02",
	"month": "2006-01",
	"year":  "2006",
}

type group struct {
	Key   string `json:"key"`
	Items []item `json:"items"`
}

// listOptions reads page, limit and sort from the query. It writes the error
// response itself and returns false on failure.
func listOptions(c *gin.Context) (store.ListOptions, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "Page must be a number")
		return store.ListOptions{}, false
	}

	if page < 0 {
		badRequest(c, "Page can't be negative")
		return store.ListOptions{}, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultLimit)))
	if err != nil {
		badRequest(c, "Limit must be a number")
		return store.ListOptions{}, false
	}

	if limit <= 0 {
		badRequest(c, "Limit must be greater than 0")
		return store.ListOptions{}, false
	}

	if limit > store.MaxLimit {
		badRequest(c, "Limit must be smaller than "+strconv.Itoa(store.MaxLimit))
		return store.ListOptions{}, false
	}

	return store.ListOptions{
		Page:  page,
		Limit: limit,
		Sort:  strings.ToLower(c.DefaultQuery("sort", "newest")),
	}, true
}

// MediaList returns a page of the caller's library
func MediaList(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	opts, ok := listOptions(c)
	if !ok {
		return
	}

	items, err := d.Store.ListActive(c.Request.Context(), userID, opts)
	if err != nil {
		abortWithError(c, err, "Failed to list media")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"photos":  views(d, items),
		"count":   len(items),
	})
}

// MediaFavorites returns a page of the caller's favorites
func MediaFavorites(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	opts, ok := listOptions(c)
	if !ok {
		return
	}

	items, err := d.Store.ListFavorites(c.Request.Context(), userID, opts)
	if err != nil {
		abortWithError(c, err, "Failed to list favorites")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"photos":  views(d, items),
		"count":   len(items),
	})
}

// MediaTimeline returns a page of the library grouped by capture date
func MediaTimeline(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(uint)

	layout, ok := groupLayouts[strings.ToLower(c.DefaultQuery("group", "day"))]
	if !ok {
		badRequest(c, "Group must be day, month or year")
		return
	}

	opts, ok := listOptions(c)
	if !ok {
		return
	}

	// Groups only make sense in capture order
	opts.Sort = "newest"

	items, err := d.Store.ListActive(c.Request.Context(), userID, opts)
	if err != nil {
		abortWithError(c, err, "Failed to build timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"groups":  groupBy(d, items, layout),
		"count":   len(items),
	})
}

// groupBy splits items, already sorted by capture time, into consecutive groups
func groupBy(d *internal.Deps, items []model.MediaItem, layout string) []group {
	groups := []group{}

	for _, m := range items {
		key := m.CapturedAt().UTC().Format(layout)

		if n := len(groups); n > 0 && groups[n-1].Key == key {
			groups[n-1].Items = append(groups[n-1].Items, view(d, m))
			continue
		}

		groups = append(groups, group{Key: key, Items: []item{view(d, m)}})
	}

	return groups
}
