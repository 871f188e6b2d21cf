package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxPageSize   = 100
	maxPageNumber = 1_000_000
)

// parseID reads a positive numeric path parameter, answering 404 otherwise
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}

// parsePage reads the page and limit query parameters
func parsePage(c *gin.Context, defaultSize int) (types.Page, bool) {
	page := types.Page{Number: 1, Size: defaultSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return page, false
		}
		page.Number = min(n, maxPageNumber)
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return page, false
		}
		page.Size = min(n, maxPageSize)
	}
	return page, true
}

// parseRecipesLimit reads recipes_limit; 0 means no limit
func parseRecipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipes_limit"})
		return 0, false
	}
	return n, true
}

// queryFlag reports whether a boolean filter is switched on
func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True":
		return true
	}
	return false
}

// paginate wraps a page of results in the list envelope with absolute links
func paginate[T any](c *gin.Context, page types.Page, result *types.PageResult[T]) types.PaginatedResponse[T] {
	resp := types.PaginatedResponse[T]{
		Count:   result.Count,
		Results: result.Items,
	}
	if resp.Results == nil {
		resp.Results = []T{}
	}

	if int64(page.Number*page.Size) < result.Count {
		next := pageURL(c, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
