package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openhire/jobboard-api/internal/core"
	"github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/domain/model"
	apperrors "github.com/openhire/jobboard-api/internal/errors"
)

// Cache keys for the aggregate read endpoints.
const (
	cacheKeyPopularTags    = "jobs:tags:popular"
	cacheKeyCategoryCounts = "jobs:categories:counts"
	cacheKeyStatistics     = "jobs:statistics"
)

// DefaultCacheTTL bounds staleness of the cached aggregates.
const DefaultCacheTTL = 5 * time.Minute

// DefaultPopularTagsLimit caps the popular tags listing when the caller does
// not ask for a specific size.
const DefaultPopularTagsLimit = 10

// JobSearchServiceConfig groups the ambient collaborators of JobSearchService.
type JobSearchServiceConfig struct {
	Logger   *slog.Logger
	CacheTTL time.Duration
}

// JobSearchServiceOptions groups dependencies for JobSearchService.
type JobSearchServiceOptions struct {
	Repo   core.JobRepository
	Deps   JobSearchServiceDeps
	Config JobSearchServiceConfig
}

// JobSearchServiceDeps groups the optional read-side collaborators.
type JobSearchServiceDeps struct {
	Users core.UserDirectory   // optional; nil leaves poster refs unresolved
	Cache core.CacheRepository // optional; nil disables aggregate caching
}

// JobSearchService serves the read side: filtered search with poster
// resolution, owner listings, and the cached aggregate endpoints.
type JobSearchService struct {
	repo     core.JobRepository
	users    core.UserDirectory
	cache    core.CacheRepository
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewJobSearchService constructs a new JobSearchService.
func NewJobSearchService(opts JobSearchServiceOptions) (*JobSearchService, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("JobRepository is required")
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.Config.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &JobSearchService{
		repo:     opts.Repo,
		users:    opts.Deps.Users,
		cache:    opts.Deps.Cache,
		logger:   logger,
		cacheTTL: ttl,
	}, nil
}

// validateSearchOptions rejects unknown enum values before they reach the
// store as silently-empty filters.
func validateSearchOptions(opts *model.JobSearchOptions) error {
	if opts.Category != nil && !opts.Category.Valid() {
		return apperrors.ValidationField("category", fmt.Sprintf("Invalid category: %s", *opts.Category))
	}
	if opts.Type != nil && !opts.Type.Valid() {
		return apperrors.ValidationField("type", fmt.Sprintf("Invalid job type: %s", *opts.Type))
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return apperrors.ValidationField("status", fmt.Sprintf("Invalid status: %s", *opts.Status))
	}
	if opts.Sort != "" && !opts.Sort.Valid() {
		return apperrors.ValidationField("sortBy", fmt.Sprintf("Invalid sort: %s", opts.Sort))
	}
	return nil
}

// Search runs a public job search. Without an explicit status or owner filter
// only published jobs are visible; an explicit status is honored verbatim,
// and an owner filter lifts the default so owners see drafts too.
func (s *JobSearchService) Search(ctx context.Context, opts *model.JobSearchOptions) (*model.SearchPage, error) {
	if opts == nil {
		opts = &model.JobSearchOptions{}
	}
	if err := validateSearchOptions(opts); err != nil {
		return nil, err
	}
	opts.Normalize()

	if opts.Status == nil && opts.PostedBy == nil {
		published := model.JobStatusPublished
		opts.Status = &published
	}

	jobs, total, err := s.repo.Search(ctx, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore,
			"A database error occurred. Please try again.")
	}

	items := s.resolvePosters(ctx, jobs)
	page := model.NewSearchPage(items, opts.Page, opts.Limit, total)
	return &page, nil
}

// OwnerJobs lists the caller's own postings across all statuses unless the
// caller narrows to one.
func (s *JobSearchService) OwnerJobs(
	ctx context.Context,
	principal auth.Principal,
	opts *model.JobSearchOptions,
) (*model.SearchPage, error) {
	if opts == nil {
		opts = &model.JobSearchOptions{}
	}
	owner := principal.ID
	opts.PostedBy = &owner
	return s.Search(ctx, opts)
}

// resolvePosters swaps poster ids for user refs. Resolution is best-effort:
// a directory failure degrades to nil refs instead of failing the search.
func (s *JobSearchService) resolvePosters(ctx context.Context, jobs []*model.Job) []*model.JobWithPoster {
	items := make([]*model.JobWithPoster, 0, len(jobs))

	var refs map[string]*model.UserRef
	if s.users != nil && len(jobs) > 0 {
		seen := make(map[string]struct{}, len(jobs))
		ids := make([]string, 0, len(jobs))
		for _, job := range jobs {
			if job.PostedBy == "" {
				continue
			}
			if _, ok := seen[job.PostedBy]; ok {
				continue
			}
			seen[job.PostedBy] = struct{}{}
			ids = append(ids, job.PostedBy)
		}

		var err error
		refs, err = s.users.GetRefsByIDs(ctx, ids)
		if err != nil {
			s.logger.WarnContext(ctx, "poster resolution failed", "err", err)
			refs = nil
		}
	}

	for _, job := range jobs {
		item := &model.JobWithPoster{Job: *job}
		if refs != nil {
			item.PostedBy = refs[job.PostedBy]
		}
		items = append(items, item)
	}
	return items
}

// PopularTags returns the most frequent skills across published jobs,
// served from cache when fresh.
func (s *JobSearchService) PopularTags(ctx context.Context, limit int) ([]model.TagCount, error) {
	if limit <= 0 {
		limit = DefaultPopularTagsLimit
	}
	key := fmt.Sprintf("%s:%d", cacheKeyPopularTags, limit)

	var tags []model.TagCount
	if s.cacheGet(ctx, key, &tags) {
		return tags, nil
	}

	tags, err := s.repo.PopularTags(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore,
			"A database error occurred. Please try again.")
	}

	s.cacheSet(ctx, key, tags)
	return tags, nil
}

// CategoryCounts returns the published job count per category, served from
// cache when fresh.
func (s *JobSearchService) CategoryCounts(ctx context.Context) ([]model.CategoryCount, error) {
	var counts []model.CategoryCount
	if s.cacheGet(ctx, cacheKeyCategoryCounts, &counts) {
		return counts, nil
	}

	counts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore,
			"A database error occurred. Please try again.")
	}

	s.cacheSet(ctx, cacheKeyCategoryCounts, counts)
	return counts, nil
}

// Statistics returns the aggregate posting statistics, served from cache
// when fresh. Access control is the caller's concern.
func (s *JobSearchService) Statistics(ctx context.Context) (*model.JobStatistics, error) {
	var cached model.JobStatistics
	if s.cacheGet(ctx, cacheKeyStatistics, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore,
			"A database error occurred. Please try again.")
	}

	s.cacheSet(ctx, cacheKeyStatistics, stats)
	return stats, nil
}

// cacheGet loads and decodes a cached aggregate. Any cache failure is logged
// and treated as a miss.
func (s *JobSearchService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

// cacheSet stores an aggregate best-effort; failures never surface.
func (s *JobSearchService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}
