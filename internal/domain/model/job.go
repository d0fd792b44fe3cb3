// Package model defines the core data types and structures used throughout the jobboard system.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a job posting.
type JobStatus string

// JobType represents an employment arrangement. A posting may carry several
// types at once (e.g., remote + full_time).
type JobType string

// JobCategory represents the professional discipline of a job posting.
type JobCategory string

const (
	// JobStatusDraft indicates a posting that is not yet publicly visible.
	JobStatusDraft JobStatus = "draft"
	// JobStatusPublished indicates a posting visible to public search.
	JobStatusPublished JobStatus = "published"
	// JobStatusExpired indicates a posting whose expiry cutoff has passed.
	// Expired is a sink: no operation moves a job out of it.
	JobStatusExpired JobStatus = "expired"
	// JobStatusClosed indicates a posting closed by its owner.
	JobStatusClosed JobStatus = "closed"
)

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
	JobTypeOnSite     JobType = "on_site"
	JobTypeHybrid     JobType = "hybrid"
)

const (
	JobCategoryBackend         JobCategory = "backend"
	JobCategoryFrontend        JobCategory = "frontend"
	JobCategoryFullStack       JobCategory = "full_stack"
	JobCategoryMobile          JobCategory = "mobile"
	JobCategoryDevOps          JobCategory = "devops"
	JobCategoryDataScience     JobCategory = "data_science"
	JobCategoryMachineLearning JobCategory = "machine_learning"
	JobCategoryUIUX            JobCategory = "ui_ux"
	JobCategoryQA              JobCategory = "qa"
	JobCategorySecurity        JobCategory = "security"
	JobCategoryBlockchain      JobCategory = "blockchain"
	JobCategoryOther           JobCategory = "other"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusDraft || s == JobStatusPublished || s == JobStatusExpired ||
		s == JobStatusClosed
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship,
		JobTypeRemote, JobTypeOnSite, JobTypeHybrid:
		return true
	}
	return false
}

// Valid returns true if the JobCategory is valid.
func (c JobCategory) Valid() bool {
	switch c {
	case JobCategoryBackend, JobCategoryFrontend, JobCategoryFullStack,
		JobCategoryMobile, JobCategoryDevOps, JobCategoryDataScience,
		JobCategoryMachineLearning, JobCategoryUIUX, JobCategoryQA,
		JobCategorySecurity, JobCategoryBlockchain, JobCategoryOther:
		return true
	}
	return false
}

// UnixMillis is a timestamp that serializes to JSON as integer
// milliseconds since epoch. Consumers must never receive ISO strings.
type UnixMillis struct {
	time.Time
}

// NewUnixMillis builds a UnixMillis from a time, truncated to millisecond
// precision so round trips through JSON compare equal.
func NewUnixMillis(t time.Time) UnixMillis {
	return UnixMillis{Time: t.Truncate(time.Millisecond)}
}

// MarshalJSON implements json.Marshaler.
func (m UnixMillis) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *UnixMillis) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		m.Time = time.Time{}
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds: %w", err)
	}
	if ms < 0 {
		return errors.New("timestamp must be a non-negative Unix millisecond value")
	}
	m.Time = time.UnixMilli(ms).UTC()
	return nil
}

// Salary is a compensation range in a single currency.
type Salary struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Job represents a job posting with its lifecycle state and counters.
type Job struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Requirements        []string    `json:"requirements"`
	Skills              []string    `json:"skills"`
	Category            JobCategory `json:"category"`
	Type                []JobType   `json:"type"`
	Location            string      `json:"location"`
	IsRemote            bool        `json:"isRemote"`
	Salary              Salary      `json:"salary"`
	Duration            string      `json:"duration,omitempty"`
	ApplicationDeadline *UnixMillis `json:"applicationDeadline,omitempty"`
	PostedBy            string      `json:"postedBy"`
	CompanyName         string      `json:"companyName"`
	CompanyLogo         string      `json:"companyLogo,omitempty"`
	CompanyCoverImage   string      `json:"companyCoverImage,omitempty"`
	Status              JobStatus   `json:"status"`
	Views               int64       `json:"views"`
	ApplicantsCount     int64       `json:"applicantsCount"`
	BookmarksCount      int64       `json:"bookmarksCount"`
	ExpiresAt           *UnixMillis `json:"expiresAt,omitempty"`
	PublishedAt         *UnixMillis `json:"publishedAt,omitempty"`
	CreatedAt           UnixMillis  `json:"createdAt"`
	UpdatedAt           UnixMillis  `json:"updatedAt"`
}

// UserRef is the denormalized owner projection attached to search results.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JobWithPoster is a Job whose postedBy field is resolved to a UserRef
// projection, or null when resolution failed.
type JobWithPoster struct {
	Job
	PostedBy *UserRef `json:"postedBy"`
}

// Field bounds shared by create and update validation.
const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 50
	descriptionMaxLen = 10000
	locationMaxLen    = 200
	durationMaxLen    = 50
	companyNameMaxLen = 200
	currencyLen       = 3
)

// DefaultCurrency is applied when a create request omits salary.currency.
const DefaultCurrency = "USD"

// CreateJobRequest represents a request to create a new job posting.
// New jobs always start in draft.
type CreateJobRequest struct {
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Requirements        []string    `json:"requirements,omitempty"`
	Skills              []string    `json:"skills,omitempty"`
	Category            JobCategory `json:"category"`
	Type                []JobType   `json:"type"`
	Location            string      `json:"location"`
	IsRemote            bool        `json:"isRemote,omitempty"`
	Salary              Salary      `json:"salary"`
	Duration            string      `json:"duration,omitempty"`
	ApplicationDeadline *UnixMillis `json:"applicationDeadline,omitempty"`
	ExpiresAt           *UnixMillis `json:"expiresAt,omitempty"`
	CompanyName         string      `json:"companyName"`
	CompanyLogo         string      `json:"companyLogo,omitempty"`
	CompanyCoverImage   string      `json:"companyCoverImage,omitempty"`
}

// Validate validates the structural constraints of a CreateJobRequest.
// Temporal policy (past deadlines, deadline/expiry ordering) is checked by
// the lifecycle service, which owns the clock.
func (r *CreateJobRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.Duration = strings.TrimSpace(r.Duration)
	if r.Salary.Currency == "" {
		r.Salary.Currency = DefaultCurrency
	}

	if l := len(r.Title); l < titleMinLen || l > titleMaxLen {
		return fmt.Errorf("title must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if l := len(r.Description); l < descriptionMinLen || l > descriptionMaxLen {
		return fmt.Errorf("description must be between %d and %d characters", descriptionMinLen, descriptionMaxLen)
	}
	if !r.Category.Valid() {
		return errors.New("invalid category")
	}
	if len(r.Type) == 0 {
		return errors.New("at least one job type is required")
	}
	for _, t := range r.Type {
		if !t.Valid() {
			return fmt.Errorf("invalid job type: %q", t)
		}
	}
	if r.Location == "" || len(r.Location) > locationMaxLen {
		return fmt.Errorf("location is required and must not exceed %d characters", locationMaxLen)
	}
	if r.Salary.Min < 0 {
		return errors.New("minimum salary must be a positive number")
	}
	if r.Salary.Max < r.Salary.Min {
		return errors.New("maximum salary must be greater than minimum salary")
	}
	if len(r.Salary.Currency) != currencyLen {
		return errors.New("currency must be a 3-letter code")
	}
	if len(r.Duration) > durationMaxLen {
		return fmt.Errorf("duration must not exceed %d characters", durationMaxLen)
	}
	if r.CompanyName == "" || len(r.CompanyName) > companyNameMaxLen {
		return fmt.Errorf("company name is required and must not exceed %d characters", companyNameMaxLen)
	}
	return nil
}

// SalaryPatch carries optional updates to a salary range.
type SalaryPatch struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency *string  `json:"currency"`
}

// JobPatch is a typed partial update. Only set (non-nil) fields are written.
// publishedAt, postedBy, and the counters are deliberately absent: they
// cannot be expressed through the update path by construction.
type JobPatch struct {
	Title               *string      `json:"title"`
	Description         *string      `json:"description"`
	Requirements        *[]string    `json:"requirements"`
	Skills              *[]string    `json:"skills"`
	Category            *JobCategory `json:"category"`
	Type                *[]JobType   `json:"type"`
	Location            *string      `json:"location"`
	IsRemote            *bool        `json:"isRemote"`
	Salary              *SalaryPatch `json:"salary"`
	Duration            *string      `json:"duration"`
	ApplicationDeadline *UnixMillis  `json:"applicationDeadline"`
	ExpiresAt           *UnixMillis  `json:"expiresAt"`
	CompanyName         *string      `json:"companyName"`
	CompanyLogo         *string      `json:"companyLogo"`
	CompanyCoverImage   *string      `json:"companyCoverImage"`
	Status              *JobStatus   `json:"status"`
}

// IsEmpty reports whether no fields are set.
func (p *JobPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Requirements == nil &&
		p.Skills == nil && p.Category == nil && p.Type == nil &&
		p.Location == nil && p.IsRemote == nil && p.Salary == nil &&
		p.Duration == nil && p.ApplicationDeadline == nil && p.ExpiresAt == nil &&
		p.CompanyName == nil && p.CompanyLogo == nil && p.CompanyCoverImage == nil &&
		p.Status == nil
}

// Validate validates the structural constraints of the set fields.
// Lifecycle guards and temporal policy live in the lifecycle service.
func (p *JobPatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if l := len(t); l < titleMinLen || l > titleMaxLen {
			return fmt.Errorf("title must be between %d and %d characters", titleMinLen, titleMaxLen)
		}
		*p.Title = t
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if l := len(d); l < descriptionMinLen || l > descriptionMaxLen {
			return fmt.Errorf("description must be between %d and %d characters", descriptionMinLen, descriptionMaxLen)
		}
		*p.Description = d
	}
	if p.Category != nil && !p.Category.Valid() {
		return errors.New("invalid category")
	}
	if p.Type != nil {
		if len(*p.Type) == 0 {
			return errors.New("at least one job type is required")
		}
		for _, t := range *p.Type {
			if !t.Valid() {
				return fmt.Errorf("invalid job type: %q", t)
			}
		}
	}
	if p.Location != nil {
		l := strings.TrimSpace(*p.Location)
		if l == "" || len(l) > locationMaxLen {
			return fmt.Errorf("location is required and must not exceed %d characters", locationMaxLen)
		}
		*p.Location = l
	}
	if p.Salary != nil {
		if p.Salary.Min != nil && *p.Salary.Min < 0 {
			return errors.New("minimum salary must be a positive number")
		}
		if p.Salary.Max != nil && *p.Salary.Max < 0 {
			return errors.New("maximum salary must be a positive number")
		}
		if p.Salary.Currency != nil && len(*p.Salary.Currency) != currencyLen {
			return errors.New("currency must be a 3-letter code")
		}
	}
	if p.Duration != nil && len(strings.TrimSpace(*p.Duration)) > durationMaxLen {
		return fmt.Errorf("duration must not exceed %d characters", durationMaxLen)
	}
	if p.CompanyName != nil {
		n := strings.TrimSpace(*p.CompanyName)
		if n == "" || len(n) > companyNameMaxLen {
			return fmt.Errorf("company name is required and must not exceed %d characters", companyNameMaxLen)
		}
		*p.CompanyName = n
	}
	if p.Status != nil && !p.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

// Counter identifies one of the atomically adjusted job counters.
type Counter string

const (
	// CounterViews counts single-job reads with incrementViews set.
	CounterViews Counter = "views"
	// CounterApplicants counts recorded applications.
	CounterApplicants Counter = "applicants_count"
	// CounterBookmarks counts active bookmarks.
	CounterBookmarks Counter = "bookmarks_count"
)

// Valid returns true if the Counter is valid.
func (c Counter) Valid() bool {
	return c == CounterViews || c == CounterApplicants || c == CounterBookmarks
}

// TagCount is one entry of the popular-skills aggregate.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// CategoryCount is one entry of the published-jobs-per-category aggregate.
type CategoryCount struct {
	Category JobCategory `json:"category"`
	Count    int64       `json:"count"`
}

// JobStatistics aggregates counts and averages across all jobs.
type JobStatistics struct {
	TotalJobs       int64   `json:"totalJobs"`
	PublishedJobs   int64   `json:"publishedJobs"`
	DraftJobs       int64   `json:"draftJobs"`
	ClosedJobs      int64   `json:"closedJobs"`
	ExpiredJobs     int64   `json:"expiredJobs"`
	TotalViews      int64   `json:"totalViews"`
	TotalApplicants int64   `json:"totalApplicants"`
	AvgSalary       float64 `json:"avgSalary"`
}
