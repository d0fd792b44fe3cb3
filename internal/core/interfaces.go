package core

import (
	"context"
	"time"

	"github.com/openhire/jobboard-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UpdateStatusParams groups parameters for JobRepository.UpdateStatus to keep param count ≤3.
// PublishedAt and ExpiresAt are written only when non-nil.
type UpdateStatusParams struct {
	ID          string
	Status      model.JobStatus
	PublishedAt *time.Time
	ExpiresAt   *time.Time
}

// IncrementParams groups parameters for JobRepository.IncrementCounter.
type IncrementParams struct {
	ID      string
	Counter model.Counter
	Delta   int
}

// JobRepository defines the interface for job posting data operations.
type JobRepository interface {
	Create(ctx context.Context, postedBy string, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// UpdateByID applies the set fields of the patch and returns the
	// post-update record. Returns data.ErrJobNotFound when id is absent.
	UpdateByID(ctx context.Context, id string, patch *model.JobPatch) (*model.Job, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*model.Job, error)
	Delete(ctx context.Context, id string) (bool, error)
	// IncrementCounter atomically adjusts one counter column in a single
	// statement; never a read-modify-write.
	IncrementCounter(ctx context.Context, params IncrementParams) (*model.Job, error)
	Search(ctx context.Context, opts *model.JobSearchOptions) ([]*model.Job, int, error)
	// ExpireDue transitions every published job with expires_at <= now to
	// expired in one statement and returns the number of rows changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	PopularTags(ctx context.Context, limit int) ([]model.TagCount, error)
	CountByCategory(ctx context.Context) ([]model.CategoryCount, error)
	Statistics(ctx context.Context) (*model.JobStatistics, error)
}

// UserDirectory resolves user ids to the projection embedded in search results.
type UserDirectory interface {
	// GetRefsByIDs returns a ref for every id that resolved; missing ids are
	// simply absent from the map.
	GetRefsByIDs(ctx context.Context, ids []string) (map[string]*model.UserRef, error)
}

// CacheRepository defines caching operations for aggregate results.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Event is a fire-and-forget notification emitted on transitions that matter
// to third parties (e.g., a new applicant on an owner's posting).
type Event struct {
	Type     string
	UserID   string
	JobID    string
	JobTitle string
}

// Event types emitted by the lifecycle service.
const (
	EventNewApplicant = "job.new_applicant"
)

// Notifier delivers events to the notification collaborator. Delivery is
// best-effort; the lifecycle service never waits on it.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
