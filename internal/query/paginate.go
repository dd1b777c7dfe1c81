package query

import (
	"gorm.io/gorm"
)

// Pagination describes a page of a filtered result set
type Pagination struct {
	TotalItems   int64 `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
	CurrentPage  int   `json:"current_page"`
	ItemsPerPage int   `json:"items_per_page"`
}

// Result is the list envelope returned by every listing endpoint
type Result[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes page metadata; total_pages is ceil(total/limit)
func NewPagination(total int64, p Page) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		TotalItems:   total,
		TotalPages:   pages,
		CurrentPage:  p.Page,
		ItemsPerPage: p.Limit,
	}
}

// Paginate counts the filtered query, then loads one page of it into out.
// The order clause keeps page boundaries stable across requests. Scopes such
// as preloads are applied to the page query only, not to the count.
func Paginate[T any](db *gorm.DB, p Page, order string, out *[]T, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	*out = make([]T, 0, p.Limit)
	if total > 0 && p.Offset() < int(total) {
		if err := db.Scopes(scopes...).Order(order).Offset(p.Offset()).Limit(p.Limit).Find(out).Error; err != nil {
			return Pagination{}, err
		}
	}
	return NewPagination(total, p), nil
}
