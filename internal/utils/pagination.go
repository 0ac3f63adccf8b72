// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaginationParams struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Sort       string  `json:"sort"`
	Order      string  `json:"order"`
	Search     string  `json:"search"`
	Categories []int64 `json:"categories"`
	PriceMin   float64 `json:"price_min"`
	PriceMax   float64 `json:"price_max"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	From       int         `json:"from"`
	To         int         `json:"to"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads the list query string. Values are passed on as
// typed; range checks belong to whoever runs the query.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	priceMin, _ := strconv.ParseFloat(c.Query("price_min"), 64)
	priceMax, _ := strconv.ParseFloat(c.Query("price_max"), 64)
	order := c.DefaultQuery("order", "desc")

	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return PaginationParams{
		Page:       page,
		Limit:      limit,
		Sort:       c.DefaultQuery("sort", "newest"),
		Order:      order,
		Search:     c.Query("search"),
		Categories: parseIDList(c.Query("category")),
		PriceMin:   priceMin,
		PriceMax:   priceMax,
	}
}

func parseIDList(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClampPage applies the default page bounds used by database listings.
func (p PaginationParams) ClampPage() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	return p
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	// Validate sort field
	sortField := params.Sort
	validSort := false
	for _, field := range allowedSortFields {
		if field == sortField {
			validSort = true
			break
		}
	}

	if !validSort {
		sortField = "created_at"
	}

	return db.Order(sortField + " " + params.Order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	result := PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}

	from := int64((params.Page-1)*params.Limit) + 1
	if from <= total {
		to := from + int64(params.Limit) - 1
		if to > total {
			to = total
		}
		result.From = int(from)
		result.To = int(to)
	}
	return result
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
