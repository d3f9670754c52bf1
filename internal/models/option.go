package models

import "strings"

// OptionKind identifies a remote-searchable reference entity.
type OptionKind string

const (
	OptionKindBatch  OptionKind = "batch"
	OptionKindExam   OptionKind = "exam"
	OptionKindGrade  OptionKind = "grade"
	OptionKindStream OptionKind = "stream"
	OptionKindTag    OptionKind = "tag"
)

// OptionKinds lists every supported option kind.
func OptionKinds() []OptionKind {
	return []OptionKind{OptionKindBatch, OptionKindExam, OptionKindGrade, OptionKindStream, OptionKindTag}
}

// Valid reports whether the kind is known.
func (k OptionKind) Valid() bool {
	switch k {
	case OptionKindBatch, OptionKindExam, OptionKindGrade, OptionKindStream, OptionKindTag:
		return true
	default:
		return false
	}
}

// Option is a reference entity shown in a picker. Identity is ID.
type Option struct {
	ID   int64   `db:"id" json:"id"`
	Name string  `db:"name" json:"name"`
	Code *string `db:"code" json:"code,omitempty"`
}

// Label renders the option for lists, appending the code when present.
func (o Option) Label() string {
	if o.Code == nil || strings.TrimSpace(*o.Code) == "" {
		return o.Name
	}
	return o.Name + " (" + *o.Code + ")"
}

// SortDirection is the ordering applied to list queries.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// PageQuery describes a zero-based paginated list request.
type PageQuery struct {
	PageNo   int           `json:"page_no"`
	PageSize int           `json:"page_size"`
	Search   string        `json:"search,omitempty"`
	Active   *bool         `json:"active,omitempty"`
	SortBy   string        `json:"sort_by,omitempty"`
	SortDir  SortDirection `json:"sort_dir,omitempty"`
}

// Normalize clamps the page number and size into usable bounds.
func (q PageQuery) Normalize(defaultSize, maxSize int) PageQuery {
	if q.PageNo < 0 {
		q.PageNo = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if maxSize > 0 && q.PageSize > maxSize {
		q.PageSize = maxSize
	}
	q.Search = strings.TrimSpace(q.Search)
	dir := SortDirection(strings.ToUpper(string(q.SortDir)))
	if dir != SortAsc && dir != SortDesc {
		dir = ""
	}
	q.SortDir = dir
	return q
}

// Page is one page of a remote list.
type Page[T any] struct {
	Content       []T `json:"content"`
	PageNumber    int `json:"page_number"`
	TotalPages    int `json:"total_pages"`
	TotalElements int `json:"total_elements"`
	PageSize      int `json:"page_size"`
}

// NewPage computes pagination metadata for a slice of items.
func NewPage[T any](items []T, pageNo, pageSize, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &Page[T]{
		Content:       items,
		PageNumber:    pageNo,
		TotalPages:    totalPages,
		TotalElements: total,
		PageSize:      pageSize,
	}
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.PageNumber < p.TotalPages-1
}

// HasPrev reports whether an earlier page exists.
func (p *Page[T]) HasPrev() bool {
	return p != nil && p.PageNumber > 0
}

// OptionPage is a page of options.
type OptionPage = Page[Option]

// ContentPage is a page of content items.
type ContentPage = Page[ContentItem]
