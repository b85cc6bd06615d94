package ranchapi

const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

type SortDirection string // @Name SortDirection

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
	SortNone SortDirection = ""
)

func (s SortDirection) String() string {
	return string(s)
}

func (s SortDirection) IsValid() bool {
	return s == SortAsc || s == SortDesc || s == SortNone
}

// Pageable is bound from the query string. PageSize 0 lists everything.
type Pageable struct {
	Page      int           `form:"page,default=0" json:"page" minimum:"0" default:"0"`                         // Zero based page number
	PageSize  int           `form:"pageSize,default=25" json:"pageSize" minimum:"0" maximum:"500" default:"25"` // Items per page
	Sort      string        `form:"sort" json:"sort"`                                                           // Sort key, e.g. earTag
	Direction SortDirection `form:"direction" json:"direction" enums:"asc,desc"`                                // Sort direction
} // @Name Pageable

// Normalized clamps negative values and oversized pages.
func (p Pageable) Normalized() Pageable {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize < 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pageable) IsPaged() bool {
	return p.PageSize > 0
}

func (p Pageable) Offset() int {
	if !p.IsPaged() {
		return 0
	}
	return p.Page * p.PageSize
}

type Page struct {
	Items      interface{} `json:"content"`                 // The items of the current page
	Page       int         `json:"currentPage" example:"1"` // Zero based page number
	PageSize   int         `json:"pageSize" example:"25"`   // Items per page, 0 when unpaged
	TotalCount int         `json:"totalCount" example:"69"` // Items across all pages
	TotalPages int         `json:"totalPages" example:"3"`  // Number of pages
} // @Name Page

func NewPage(pageable Pageable, totalCount int, items interface{}) Page {
	page := Page{
		Items:      items,
		TotalCount: totalCount,
	}
	if totalCount <= 0 {
		if pageable.IsPaged() {
			page.Page, page.PageSize = pageable.Page, pageable.PageSize
		}
		return page
	}
	if !pageable.IsPaged() {
		page.TotalPages = 1
		return page
	}
	page.Page = pageable.Page
	page.PageSize = pageable.PageSize
	page.TotalPages = (totalCount + pageable.PageSize - 1) / pageable.PageSize
	return page
}
