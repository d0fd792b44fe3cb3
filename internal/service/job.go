package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openhire/jobboard-api/internal/core"
	"github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/domain/model"
	apperrors "github.com/openhire/jobboard-api/internal/errors"
)

// clock abstracts time for deterministic lifecycle tests.
type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// defaultPublishWindow is applied when a job is published with neither an
// expiry nor an application deadline.
const defaultPublishWindow = 30 * 24 * time.Hour

// JobServiceConfig groups the ambient collaborators of JobService.
type JobServiceConfig struct {
	Logger *slog.Logger
	Clock  clock
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo     core.JobRepository // Required: job repository
	Notifier core.Notifier      // Optional: event fan-out; nil disables emission
	Config   JobServiceConfig   // Optional: logger and clock overrides
}

// JobService owns the job posting lifecycle: creation, the status state
// machine (draft → published → closed/expired), counters, and the batch
// expiry sweep. All single-job mutations are owner-gated.
type JobService struct {
	repo     core.JobRepository
	notifier core.Notifier
	logger   *slog.Logger
	clock    clock
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Config.Clock
	if clk == nil {
		clk = systemClock{}
	}
	return &JobService{
		repo:     opts.Repo,
		notifier: opts.Notifier,
		logger:   logger,
		clock:    clk,
	}, nil
}

// Create validates and stores a new draft job on behalf of the caller.
// Only HR and admin users with a verified email may post.
func (s *JobService) Create(
	ctx context.Context,
	principal auth.Principal,
	req *model.CreateJobRequest,
) (*model.Job, error) {
	if !principal.Role.CanPostJobs() {
		return nil, apperrors.Forbidden("Only HR and admin users can post jobs")
	}
	if !principal.EmailVerified {
		return nil, apperrors.Forbidden("Please verify your email before posting jobs")
	}
	if req == nil {
		return nil, apperrors.Validation("Request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := s.clock.Now()
	if req.ApplicationDeadline != nil && req.ApplicationDeadline.Before(now) {
		return nil, apperrors.ValidationField(
			"applicationDeadline", "Application deadline must be in the future")
	}
	if req.ExpiresAt != nil {
		if req.ExpiresAt.Before(now) {
			return nil, apperrors.ValidationField(
				"expiresAt", "Expires at must be in the future")
		}
		if req.ApplicationDeadline != nil && req.ExpiresAt.Before(req.ApplicationDeadline.Time) {
			return nil, apperrors.ValidationField(
				"expiresAt", "Expires at must be after or equal to application deadline")
		}
	}

	job, err := s.repo.Create(ctx, principal.ID, req)
	if err != nil {
		return nil, s.storeErr("create job", err)
	}
	s.logger.InfoContext(ctx, "job created", "job_id", job.ID, "user_id", principal.ID)
	return job, nil
}

// GetByID fetches a job. When incrementViews is set and the job is published,
// the view counter is bumped atomically and the updated record returned; a
// failed bump degrades to the fetched record rather than failing the read.
func (s *JobService) GetByID(ctx context.Context, id string, incrementViews bool) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}

	if incrementViews && job.Status == model.JobStatusPublished {
		updated, incErr := s.repo.IncrementCounter(ctx, core.IncrementParams{
			ID:      id,
			Counter: model.CounterViews,
			Delta:   1,
		})
		if incErr != nil {
			s.logger.WarnContext(ctx, "view count increment failed", "job_id", id, "err", incErr)
			return job, nil
		}
		return updated, nil
	}

	return job, nil
}

// Update applies a typed patch to an owned job. Status changes ride along only
// within the limits of the state machine: closed and expired jobs are frozen,
// and the closed/expired statuses themselves are reachable only through the
// dedicated operations.
func (s *JobService) Update(
	ctx context.Context,
	principal auth.Principal,
	id string,
	patch *model.JobPatch,
) (*model.Job, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, apperrors.Validation("No fields to update")
	}
	if err := patch.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}
	if job.PostedBy != principal.ID {
		return nil, apperrors.Forbidden("Unauthorized to update this job")
	}

	if patch.Status != nil {
		if guardErr := validateStatusPatch(job.Status, *patch.Status); guardErr != nil {
			return nil, guardErr
		}
	}

	now := s.clock.Now()
	if patch.ApplicationDeadline != nil && patch.ApplicationDeadline.Before(now) {
		return nil, apperrors.ValidationField(
			"applicationDeadline", "Application deadline must be in the future")
	}
	if patch.ExpiresAt != nil {
		if patch.ExpiresAt.Before(now) {
			return nil, apperrors.ValidationField(
				"expiresAt", "Expires at must be in the future")
		}
		if job.Status == model.JobStatusPublished && job.PublishedAt != nil &&
			patch.ExpiresAt.Before(job.PublishedAt.Time) {
			return nil, apperrors.ValidationField(
				"expiresAt", "Expires at must be after the publish date")
		}
		deadline := job.ApplicationDeadline
		if patch.ApplicationDeadline != nil {
			deadline = patch.ApplicationDeadline
		}
		if deadline != nil && patch.ExpiresAt.Before(deadline.Time) {
			return nil, apperrors.ValidationField(
				"expiresAt", "Expires at must be after or equal to application deadline")
		}
	}

	updated, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, s.storeErr("update job", err)
	}
	return updated, nil
}

// validateStatusPatch enforces the state machine limits on status changes
// requested through the generic update path. Setting a closed job's status
// back to closed is a permitted no-op.
func validateStatusPatch(current, target model.JobStatus) error {
	switch {
	case current == model.JobStatusExpired && target != model.JobStatusExpired:
		return apperrors.Domain("Cannot change status of an expired job")
	case current == model.JobStatusClosed && target != model.JobStatusClosed:
		return apperrors.Domain("Cannot change status of a closed job. Reopen it first.")
	case current == model.JobStatusPublished && target == model.JobStatusDraft:
		return apperrors.Domain("Cannot change published job to draft. Unpublish it instead.")
	case target == model.JobStatusExpired,
		target == model.JobStatusClosed && current != model.JobStatusClosed:
		return apperrors.Domainf(
			"Cannot set status to %s via update. Use the specific close/expire methods.", target)
	}
	return nil
}

// Publish transitions an owned draft job to published. The publish timestamp
// is set to now on every publish; the expiry defaults to the application
// deadline, or 30 days out when no deadline exists.
func (s *JobService) Publish(ctx context.Context, principal auth.Principal, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}
	if job.PostedBy != principal.ID {
		return nil, apperrors.Forbidden("Unauthorized to publish this job")
	}

	switch job.Status {
	case model.JobStatusPublished:
		return nil, apperrors.Domain("Job is already published")
	case model.JobStatusExpired:
		return nil, apperrors.Domain("Cannot publish an expired job")
	case model.JobStatusClosed:
		return nil, apperrors.Domain("Cannot publish a closed job")
	}

	if job.Title == "" || job.Description == "" || job.Category == "" ||
		job.Location == "" || job.CompanyName == "" {
		return nil, apperrors.Domain(
			"Job must have all required fields (title, description, category, location, companyName) before publishing")
	}

	now := s.clock.Now()
	var expiresAt time.Time
	switch {
	case job.ExpiresAt != nil:
		if job.ExpiresAt.Before(now) {
			return nil, apperrors.Domain(
				"Cannot publish job with expired expiry date. Update expiresAt first.")
		}
		expiresAt = job.ExpiresAt.Time
	case job.ApplicationDeadline != nil:
		expiresAt = job.ApplicationDeadline.Time
	default:
		expiresAt = now.Add(defaultPublishWindow)
		s.logger.InfoContext(ctx, "setting default expiry for job", "job_id", id)
	}
	if expiresAt.Before(now) {
		return nil, apperrors.Domain("Expires at must be after the publish date")
	}

	published, err := s.repo.UpdateStatus(ctx, core.UpdateStatusParams{
		ID:          id,
		Status:      model.JobStatusPublished,
		PublishedAt: &now,
		ExpiresAt:   &expiresAt,
	})
	if err != nil {
		return nil, s.storeErr("publish job", err)
	}
	return published, nil
}

// Unpublish returns a published job to draft. The historical publish
// timestamp is retained.
func (s *JobService) Unpublish(ctx context.Context, principal auth.Principal, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}
	if job.PostedBy != principal.ID {
		return nil, apperrors.Forbidden("Unauthorized to unpublish this job")
	}
	if job.Status != model.JobStatusPublished {
		return nil, apperrors.Domainf(
			"Cannot unpublish a job with status '%s'. Only published jobs can be unpublished.", job.Status)
	}

	unpublished, err := s.repo.UpdateStatus(ctx, core.UpdateStatusParams{
		ID:     id,
		Status: model.JobStatusDraft,
	})
	if err != nil {
		return nil, s.storeErr("unpublish job", err)
	}
	return unpublished, nil
}

// Close transitions an owned draft or published job to closed.
func (s *JobService) Close(ctx context.Context, principal auth.Principal, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}
	if job.PostedBy != principal.ID {
		return nil, apperrors.Forbidden("Unauthorized to close this job")
	}
	if job.Status == model.JobStatusClosed {
		return nil, apperrors.Domain("Job is already closed")
	}
	if job.Status == model.JobStatusExpired {
		return nil, apperrors.Domain("Cannot close an expired job. Expired jobs cannot be modified.")
	}

	closed, err := s.repo.UpdateStatus(ctx, core.UpdateStatusParams{
		ID:     id,
		Status: model.JobStatusClosed,
	})
	if err != nil {
		return nil, s.storeErr("close job", err)
	}
	return closed, nil
}

// Delete permanently removes an owned job. Removal is immediate and final.
func (s *JobService) Delete(ctx context.Context, principal auth.Principal, id string) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.storeErr("get job", err)
	}
	if job.PostedBy != principal.ID {
		return apperrors.Forbidden("Unauthorized to delete this job")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.storeErr("delete job", err)
	}
	if !deleted {
		return apperrors.NotFound("Job not found")
	}
	s.logger.InfoContext(ctx, "job deleted", "job_id", id, "user_id", principal.ID)
	return nil
}

// RecordApplication bumps the applicant counter on a published job and emits
// a fire-and-forget new-applicant event to the job owner.
func (s *JobService) RecordApplication(ctx context.Context, principal auth.Principal, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get job", err)
	}
	if job.Status != model.JobStatusPublished {
		return nil, apperrors.Domain("Cannot apply to a job that is not published")
	}
	now := s.clock.Now()
	if job.ApplicationDeadline != nil && job.ApplicationDeadline.Before(now) {
		return nil, apperrors.Domain("Application deadline has passed")
	}

	updated, err := s.repo.IncrementCounter(ctx, core.IncrementParams{
		ID:      id,
		Counter: model.CounterApplicants,
		Delta:   1,
	})
	if err != nil {
		return nil, s.storeErr("record application", err)
	}

	if s.notifier != nil {
		event := core.Event{
			Type:     core.EventNewApplicant,
			UserID:   job.PostedBy,
			JobID:    job.ID,
			JobTitle: job.Title,
		}
		// Delivery must not block or fail the application; detach from the
		// request context.
		go func() {
			if notifyErr := s.notifier.Notify(context.Background(), event); notifyErr != nil {
				s.logger.Warn("new applicant notification failed", "job_id", event.JobID, "err", notifyErr)
			}
		}()
	}

	return updated, nil
}

// AddBookmark bumps the bookmark counter.
func (s *JobService) AddBookmark(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.IncrementCounter(ctx, core.IncrementParams{
		ID:      id,
		Counter: model.CounterBookmarks,
		Delta:   1,
	})
	if err != nil {
		return nil, s.storeErr("add bookmark", err)
	}
	return job, nil
}

// RemoveBookmark decrements the bookmark counter; the store floors it at zero.
func (s *JobService) RemoveBookmark(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.IncrementCounter(ctx, core.IncrementParams{
		ID:      id,
		Counter: model.CounterBookmarks,
		Delta:   -1,
	})
	if err != nil {
		return nil, s.storeErr("remove bookmark", err)
	}
	return job, nil
}

// ExpireJobs transitions every published job whose expiry has passed to
// expired in a single store operation and returns the number of jobs changed.
// It bypasses ownership; it is invoked by the background sweeper, not callers.
func (s *JobService) ExpireJobs(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		return 0, s.storeErr("expire jobs", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "expired overdue jobs", "count", count)
	}
	return count, nil
}

// storeErr passes through classified application errors and wraps everything
// else as a store failure so raw database text never reaches callers.
func (s *JobService) storeErr(op string, err error) error {
	if apperrors.GetCode(err) != "" {
		return err
	}
	return apperrors.Wrap(fmt.Errorf("%s: %w", op, err), apperrors.ErrCodeStore,
		"A database error occurred. Please try again.")
}
