package domain

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a clamped page window. Build it with NewPageRequest.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"page_size"`
}

// NewPageRequest clamps page to >= 1 and size to [1, MaxPageSize]. Non-positive
// values fall back to the defaults.
func NewPageRequest(page, size int) PageRequest {
	if page <= 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// Pagination is the page metadata attached to a Report.
type Pagination struct {
	Current    int   `json:"current"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewPagination(page PageRequest, total int64) Pagination {
	size := int64(page.Size)
	totalPages := (total + size - 1) / size
	if total <= 0 {
		totalPages = 0
	}
	return Pagination{
		Current:    page.Page,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page.Page > 1,
		HasNext:    int64(page.Page) < totalPages,
	}
}
