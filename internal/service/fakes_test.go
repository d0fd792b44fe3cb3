package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openhire/jobboard-api/internal/core"
	"github.com/openhire/jobboard-api/internal/domain/model"
	apperrors "github.com/openhire/jobboard-api/internal/errors"
)

// fixedClock returns a pinned instant for deterministic lifecycle tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeJobRepo is an in-memory JobRepository. Behavior can be overridden per
// method through the fn fields; unset fns fall back to the map-backed default.
type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]*model.Job
	nextID int
	clock  clock

	createFn    func(ctx context.Context, postedBy string, req *model.CreateJobRequest) (*model.Job, error)
	getFn       func(ctx context.Context, id string) (*model.Job, error)
	updateFn    func(ctx context.Context, id string, patch *model.JobPatch) (*model.Job, error)
	statusFn    func(ctx context.Context, params core.UpdateStatusParams) (*model.Job, error)
	deleteFn    func(ctx context.Context, id string) (bool, error)
	incrementFn func(ctx context.Context, params core.IncrementParams) (*model.Job, error)
	searchFn    func(ctx context.Context, opts *model.JobSearchOptions) ([]*model.Job, int, error)
	expireFn    func(ctx context.Context, now time.Time) (int64, error)
	tagsFn      func(ctx context.Context, limit int) ([]model.TagCount, error)
	catsFn      func(ctx context.Context) ([]model.CategoryCount, error)
	statsFn     func(ctx context.Context) (*model.JobStatistics, error)

	statusCalls    []core.UpdateStatusParams
	incrementCalls []core.IncrementParams
	searchCalls    []model.JobSearchOptions
}

func newFakeJobRepo(clk clock) *fakeJobRepo {
	if clk == nil {
		clk = systemClock{}
	}
	return &fakeJobRepo{jobs: map[string]*model.Job{}, clock: clk}
}

// seed inserts a job directly, bypassing validation.
func (r *fakeJobRepo) seed(job *model.Job) *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		r.nextID++
		job.ID = fmt.Sprintf("job-%d", r.nextID)
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return job
}

func (r *fakeJobRepo) get(id string) *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		clone := *job
		return &clone
	}
	return nil
}

func (r *fakeJobRepo) Create(ctx context.Context, postedBy string, req *model.CreateJobRequest) (*model.Job, error) {
	if r.createFn != nil {
		return r.createFn(ctx, postedBy, req)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := model.NewUnixMillis(r.clock.Now())
	job := &model.Job{
		ID:                  fmt.Sprintf("job-%d", r.nextID),
		Title:               req.Title,
		Description:         req.Description,
		Requirements:        req.Requirements,
		Skills:              req.Skills,
		Category:            req.Category,
		Type:                req.Type,
		Location:            req.Location,
		IsRemote:            req.IsRemote,
		Salary:              req.Salary,
		Duration:            req.Duration,
		ApplicationDeadline: req.ApplicationDeadline,
		ExpiresAt:           req.ExpiresAt,
		PostedBy:            postedBy,
		CompanyName:         req.CompanyName,
		CompanyLogo:         req.CompanyLogo,
		CompanyCoverImage:   req.CompanyCoverImage,
		Status:              model.JobStatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return job, nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if r.getFn != nil {
		return r.getFn(ctx, id)
	}
	if job := r.get(id); job != nil {
		return job, nil
	}
	return nil, apperrors.NotFound("Job not found")
}

func (r *fakeJobRepo) UpdateByID(ctx context.Context, id string, patch *model.JobPatch) (*model.Job, error) {
	if r.updateFn != nil {
		return r.updateFn(ctx, id, patch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("Job not found")
	}
	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.ApplicationDeadline != nil {
		job.ApplicationDeadline = patch.ApplicationDeadline
	}
	if patch.ExpiresAt != nil {
		job.ExpiresAt = patch.ExpiresAt
	}
	if patch.Salary != nil {
		if patch.Salary.Min != nil {
			job.Salary.Min = *patch.Salary.Min
		}
		if patch.Salary.Max != nil {
			job.Salary.Max = *patch.Salary.Max
		}
		if patch.Salary.Currency != nil {
			job.Salary.Currency = *patch.Salary.Currency
		}
	}
	job.UpdatedAt = model.NewUnixMillis(r.clock.Now())
	clone := *job
	return &clone, nil
}

func (r *fakeJobRepo) UpdateStatus(ctx context.Context, params core.UpdateStatusParams) (*model.Job, error) {
	r.mu.Lock()
	r.statusCalls = append(r.statusCalls, params)
	r.mu.Unlock()
	if r.statusFn != nil {
		return r.statusFn(ctx, params)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok {
		return nil, apperrors.NotFound("Job not found")
	}
	job.Status = params.Status
	if params.PublishedAt != nil {
		p := model.NewUnixMillis(*params.PublishedAt)
		job.PublishedAt = &p
	}
	if params.ExpiresAt != nil {
		e := model.NewUnixMillis(*params.ExpiresAt)
		job.ExpiresAt = &e
	}
	job.UpdatedAt = model.NewUnixMillis(r.clock.Now())
	clone := *job
	return &clone, nil
}

func (r *fakeJobRepo) Delete(ctx context.Context, id string) (bool, error) {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}

func (r *fakeJobRepo) IncrementCounter(ctx context.Context, params core.IncrementParams) (*model.Job, error) {
	r.mu.Lock()
	r.incrementCalls = append(r.incrementCalls, params)
	r.mu.Unlock()
	if r.incrementFn != nil {
		return r.incrementFn(ctx, params)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.ID]
	if !ok {
		return nil, apperrors.NotFound("Job not found")
	}
	delta := int64(params.Delta)
	switch params.Counter {
	case model.CounterViews:
		job.Views = floorZero(job.Views + delta)
	case model.CounterApplicants:
		job.ApplicantsCount = floorZero(job.ApplicantsCount + delta)
	case model.CounterBookmarks:
		job.BookmarksCount = floorZero(job.BookmarksCount + delta)
	default:
		return nil, fmt.Errorf("unknown counter %q", params.Counter)
	}
	clone := *job
	return &clone, nil
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func (r *fakeJobRepo) Search(ctx context.Context, opts *model.JobSearchOptions) ([]*model.Job, int, error) {
	r.mu.Lock()
	r.searchCalls = append(r.searchCalls, *opts)
	r.mu.Unlock()
	if r.searchFn != nil {
		return r.searchFn(ctx, opts)
	}
	return []*model.Job{}, 0, nil
}

func (r *fakeJobRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	if r.expireFn != nil {
		return r.expireFn(ctx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, job := range r.jobs {
		if job.Status == model.JobStatusPublished && job.ExpiresAt != nil && !job.ExpiresAt.After(now) {
			job.Status = model.JobStatusExpired
			count++
		}
	}
	return count, nil
}

func (r *fakeJobRepo) PopularTags(ctx context.Context, limit int) ([]model.TagCount, error) {
	if r.tagsFn != nil {
		return r.tagsFn(ctx, limit)
	}
	return []model.TagCount{}, nil
}

func (r *fakeJobRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	if r.catsFn != nil {
		return r.catsFn(ctx)
	}
	return []model.CategoryCount{}, nil
}

func (r *fakeJobRepo) Statistics(ctx context.Context) (*model.JobStatistics, error) {
	if r.statsFn != nil {
		return r.statsFn(ctx)
	}
	return &model.JobStatistics{}, nil
}

// fakeNotifier records delivered events and signals each delivery.
type fakeNotifier struct {
	mu     sync.Mutex
	events []core.Event
	done   chan struct{}
	err    error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 16)}
}

func (n *fakeNotifier) Notify(_ context.Context, event core.Event) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	err := n.err
	n.mu.Unlock()
	n.done <- struct{}{}
	return err
}

// wait blocks until one delivery happened or the timeout elapsed.
func (n *fakeNotifier) wait(timeout time.Duration) bool {
	select {
	case <-n.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n *fakeNotifier) delivered() []core.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]core.Event, len(n.events))
	copy(out, n.events)
	return out
}

// fakeUserDirectory resolves a fixed set of refs.
type fakeUserDirectory struct {
	refs  map[string]*model.UserRef
	err   error
	calls [][]string
}

func (d *fakeUserDirectory) GetRefsByIDs(_ context.Context, ids []string) (map[string]*model.UserRef, error) {
	d.calls = append(d.calls, ids)
	if d.err != nil {
		return nil, d.err
	}
	out := map[string]*model.UserRef{}
	for _, id := range ids {
		if ref, ok := d.refs[id]; ok {
			out[id] = ref
		}
	}
	return out, nil
}

// fakeCache is an in-memory CacheRepository without expiry.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
	gets   int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
