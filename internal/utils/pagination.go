package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalised page request
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Offset returns the row offset of the page
func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

// ParsePage reads page and page_size query params, clamping bad values
func ParsePage(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Page: page, PageSize: size}
}

// PageResult is one page of a listing
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPageResult wraps items fetched for p out of total rows
func NewPageResult[T any](items []T, p Page, total int64) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: (int(total) + p.PageSize - 1) / p.PageSize,
	}
}
