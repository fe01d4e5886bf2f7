package types

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultFeedPageSize is the number of note cards served per homepage or
// author-page fetch.
const DefaultFeedPageSize = 10

// DefaultSearchPageSize is the number of note cards served per search fetch.
const DefaultSearchPageSize = 10

// ParseOffset reads a non-negative integer offset query parameter,
// defaulting to 0 for missing or malformed values.
func ParseOffset(c *gin.Context, name string) int {
	offset, err := strconv.Atoi(c.DefaultQuery(name, "0"))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// ParseOptionalOffset reads an offset query parameter that distinguishes
// "absent" (nil, start from the beginning) from an explicit value.
func ParseOptionalOffset(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return nil
	}
	return &offset
}

// NextSearchOffset computes the continuation offset after serving a page:
// nil when the page came back short, meaning no further results exist.
func NextSearchOffset(offset, served, pageSize int) *int {
	if served < pageSize {
		return nil
	}
	next := offset + served
	return &next
}
