// Package httpx provides HTTP handlers and utilities for the job board API.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/domain/model"
	"github.com/openhire/jobboard-api/internal/service"
)

// JobHandlers provides HTTP handlers for job posting operations.
type JobHandlers struct {
	Jobs   *service.JobService
	Search *service.JobSearchService
}

// Create handles HTTP requests to create a new draft job.
func (h *JobHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Jobs.Create(r.Context(), principal, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// List handles public job search requests.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts := parseSearchOptions(r)

	// An owner filter lifts the published-only default, so it is honored
	// only for the caller's own postings. Admins may inspect any poster.
	if v := r.URL.Query().Get("postedBy"); v != "" {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || (principal.ID != v && principal.Role != auth.RoleAdmin) {
			WriteError(w, ErrorParams{
				Code:    http.StatusForbidden,
				ErrCode: "insufficient_permissions",
				Err:     errors.New("postedBy filter is limited to your own postings"),
			})
			return
		}
		opts.PostedBy = &v
	}

	page, err := h.Search.Search(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// My lists the caller's own postings across all statuses.
func (h *JobHandlers) My(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	opts := parseSearchOptions(r)
	page, err := h.Search.OwnerJobs(r.Context(), principal, opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// Get handles HTTP requests to fetch a single job. Views are counted unless
// the caller opts out with ?incrementViews=false.
func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}
	incrementViews := parseBoolQuery(r, "incrementViews", true)

	job, err := h.Jobs.GetByID(r.Context(), id, incrementViews)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Update handles HTTP requests to patch an owned job.
func (h *JobHandlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	var patch model.JobPatch
	if !DecodeJSON(w, r, &patch) {
		return
	}

	job, err := h.Jobs.Update(r.Context(), principal, id, &patch)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Delete handles HTTP requests to permanently remove an owned job.
func (h *JobHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	if err := h.Jobs.Delete(r.Context(), principal, id); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish handles HTTP requests to publish an owned draft job.
func (h *JobHandlers) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Jobs.Publish)
}

// Unpublish handles HTTP requests to return a published job to draft.
func (h *JobHandlers) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Jobs.Unpublish)
}

// Close handles HTTP requests to close an owned job.
func (h *JobHandlers) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Jobs.Close)
}

// transition runs one of the owner-gated status operations.
func (h *JobHandlers) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, auth.Principal, string) (*model.Job, error),
) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	job, err := op(r.Context(), principal, id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Apply handles HTTP requests to record an application against a published job.
func (h *JobHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	job, err := h.Jobs.RecordApplication(r.Context(), principal, id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// AddBookmark handles HTTP requests to bookmark a job.
func (h *JobHandlers) AddBookmark(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	job, err := h.Jobs.AddBookmark(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// RemoveBookmark handles HTTP requests to remove a bookmark from a job.
func (h *JobHandlers) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeMissingID(w)
		return
	}

	job, err := h.Jobs.RemoveBookmark(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// PopularTags handles HTTP requests for the most frequent skills across
// published jobs.
func (h *JobHandlers) PopularTags(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)

	tags, err := h.Search.PopularTags(r.Context(), limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Categories handles HTTP requests for the published job count per category.
func (h *JobHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Search.CategoryCounts(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"categories": counts})
}

// Stats handles HTTP requests for aggregate posting statistics.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Search.Statistics(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// parseSearchOptions builds search options from query parameters. Enum values
// are passed through as-is; the search service rejects unknown ones.
func parseSearchOptions(r *http.Request) *model.JobSearchOptions {
	q := r.URL.Query()
	opts := &model.JobSearchOptions{
		Page:  parseIntQuery(r, "page", 0),
		Limit: parseIntQuery(r, "limit", 0),
		Sort:  model.SortBy(q.Get("sortBy")),
	}

	if v := q.Get("category"); v != "" {
		category := model.JobCategory(v)
		opts.Category = &category
	}
	if v := q.Get("type"); v != "" {
		jobType := model.JobType(v)
		opts.Type = &jobType
	}
	if v := q.Get("location"); v != "" {
		opts.Location = &v
	}
	if v := q.Get("isRemote"); v != "" {
		remote := v == "true" || v == "1"
		opts.IsRemote = &remote
	}
	if v, ok := parseFloatQuery(r, "minSalary"); ok {
		opts.MinSalary = &v
	}
	if v, ok := parseFloatQuery(r, "maxSalary"); ok {
		opts.MaxSalary = &v
	}
	if v := q.Get("keyword"); v != "" {
		opts.Keyword = &v
	}
	if v := q.Get("status"); v != "" {
		status := model.JobStatus(v)
		opts.Status = &status
	}
	return opts
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

func writeMissingID(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusBadRequest,
		ErrCode: "invalid_path",
		Err:     errors.New("job id is required"),
	})
}
