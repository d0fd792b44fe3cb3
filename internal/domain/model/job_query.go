package model

import "strings"

// SortBy selects the ordering of search results.
type SortBy string

const (
	SortByRecent     SortBy = "recent"
	SortByPopularity SortBy = "popularity"
	SortBySalary     SortBy = "salary"
	SortByDate       SortBy = "date"
)

// Valid returns true if the SortBy is valid.
func (s SortBy) Valid() bool {
	return s == SortByRecent || s == SortByPopularity || s == SortBySalary || s == SortByDate
}

// Search pagination bounds.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// JobSearchOptions groups the filter, sort, and pagination parameters for a
// job search. All filters are optional.
type JobSearchOptions struct {
	Category  *JobCategory // exact category match
	Type      *JobType     // single value, matched via "list contains"
	Location  *string      // case-insensitive substring
	IsRemote  *bool        // exact match
	MinSalary *float64     // matches jobs whose salary.max >= MinSalary
	MaxSalary *float64     // matches jobs whose salary.min <= MaxSalary
	Keyword   *string      // free text; switches ordering to relevance
	Sort      SortBy       // empty means created_at desc
	PostedBy  *string      // owner filter; presence disables the default status filter
	Status    *JobStatus   // explicit status override
	Page      int          // 1-based
	Limit     int          // clamped to [1, MaxSearchLimit], default DefaultSearchLimit
}

// Normalize clamps pagination to sane bounds and trims the keyword. A
// keyword that is blank after trimming is dropped so it cannot switch the
// ordering to relevance.
func (o *JobSearchOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Keyword != nil {
		k := strings.TrimSpace(*o.Keyword)
		if k == "" {
			o.Keyword = nil
		} else {
			o.Keyword = &k
		}
	}
}

// SearchPage is the paginated search result envelope.
type SearchPage struct {
	Items       []*JobWithPoster `json:"items"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
	Total       int              `json:"total"`
	TotalPages  int              `json:"totalPages"`
	HasNextPage bool             `json:"hasNextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
}

// NewSearchPage computes the pagination metadata for a result slice.
func NewSearchPage(items []*JobWithPoster, page, limit, total int) SearchPage {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	if items == nil {
		items = []*JobWithPoster{}
	}
	return SearchPage{
		Items:       items,
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
