package pagination

import (
	"encoding/json"
	"net/url"
	"slices"
	"strconv"

	"github.com/JaimeStill/docket/pkg/query"
)

// SortFields accepts either a "Field,-Other" string or an array of
// query.SortField objects when decoded from JSON.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var raw string
	if json.Unmarshal(data, &raw) == nil {
		*s = query.ParseSortFields(raw)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest selects one page of a listing. Page is 1-based. Search and
// Sort name logical fields; stores ignore sort fields they do not know.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps Page to at least 1 and PageSize into [1, cfg.MaxPageSize],
// substituting cfg.DefaultPageSize when PageSize is unset.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset is the number of records that precede the page.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery reads page, page_size, search, and sort from a query
// string and normalizes the result. Unparseable numbers fall back to defaults.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(values.Get(key))
		return n
	}

	req := PageRequest{
		Page:     atoi("page"),
		PageSize: atoi("page_size"),
		Sort:     query.ParseSortFields(values.Get("sort")),
	}
	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult is one page of T with the totals a client needs to page on.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPageResult builds a PageResult, rounding TotalPages up. An empty or
// unpaged result reports one page, and nil data encodes as [].
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if data == nil {
		data = make([]T, 0)
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasMore:    page < pages,
	}
}

// Paginate returns the page req selects from items, which must already be
// filtered and ordered. The page is a copy; pages past the end are empty.
func Paginate[T any](items []T, req PageRequest) PageResult[T] {
	total := len(items)
	start := min(max(req.Offset(), 0), total)
	end := min(start+max(req.PageSize, 0), total)
	return NewPageResult(slices.Clone(items[start:end]), total, req.Page, req.PageSize)
}
