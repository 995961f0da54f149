// Package params reads path and query parameters shared by the HTTP handlers.
package params

import (
	"net/http"
	"strconv"

	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxLimit = 100

// ID parses a positive int64 path parameter. On failure it writes a 400 and returns false.
func ID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// Page reads ?page= and ?limit=, falling back to page 1 and defaultLimit.
func Page(c *gin.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
