package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// NewPaginationParams builds params for a 1-based page. A zero page or limit
// yields params that do not paginate.
func NewPaginationParams(page, limit int) PaginationParams {
	if page <= 0 || limit <= 0 {
		return PaginationParams{}
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(constants.DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return NewPaginationParams(page, limit)
}
