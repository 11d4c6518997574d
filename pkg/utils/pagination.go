package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
	// Requested is false when the client sent neither page nor limit.
	Requested bool
}

// GetPaginationParams extracts pagination parameters from request
func GetPaginationParams(c echo.Context) PaginationParams {
	pageParam := c.QueryParam("page")
	limitParam := c.QueryParam("limit")

	page, _ := strconv.Atoi(pageParam)
	pageSize, _ := strconv.Atoi(limitParam)

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20 // Default page size
	}

	offset := (page - 1) * pageSize

	return PaginationParams{
		Page:      page,
		PageSize:  pageSize,
		Offset:    offset,
		Requested: pageParam != "" || limitParam != "",
	}
}
