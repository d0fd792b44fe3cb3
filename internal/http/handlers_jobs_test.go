package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openhire/jobboard-api/internal/core"
	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/domain/model"
	apperrors "github.com/openhire/jobboard-api/internal/errors"
	"github.com/openhire/jobboard-api/internal/mocks"
	mockauth "github.com/openhire/jobboard-api/internal/mocks/auth"
	"github.com/openhire/jobboard-api/internal/service"
)

const (
	hrToken        = "hr-token"
	hr2Token       = "hr2-token"
	adminToken     = "admin-token"
	applicantToken = "applicant-token"
)

// newTestRouter wires real services over a mocked repository behind the full
// router, so routes, middleware, and error mapping are all exercised.
func newTestRouter(t *testing.T, repo core.JobRepository) http.Handler {
	t.Helper()

	jobs, err := service.NewJobService(service.JobServiceOptions{Repo: repo})
	require.NoError(t, err)
	search, err := service.NewJobSearchService(service.JobSearchServiceOptions{Repo: repo})
	require.NoError(t, err)

	verifier := mockauth.NewStaticTokenVerifier().
		Add(hrToken, domainauth.Principal{ID: "hr-1", Role: domainauth.RoleHR, EmailVerified: true}).
		Add(hr2Token, domainauth.Principal{ID: "hr-2", Role: domainauth.RoleHR, EmailVerified: true}).
		Add(adminToken, domainauth.Principal{ID: "admin-1", Role: domainauth.RoleAdmin, EmailVerified: true}).
		Add(applicantToken, domainauth.Principal{ID: "user-1", Role: domainauth.RoleApplicant, EmailVerified: true})

	return NewRouter(RouterServices{Jobs: jobs, Search: search, Verifier: verifier})
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func authedRequest(method, target, token string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func sampleJob(id, owner string, status model.JobStatus) *model.Job {
	now := model.NewUnixMillis(time.Now())
	return &model.Job{
		ID:          id,
		Title:       "Senior Backend Engineer",
		Description: strings.Repeat("Build and operate distributed services. ", 3),
		Category:    model.JobCategoryBackend,
		Type:        []model.JobType{model.JobTypeFullTime},
		Location:    "Berlin",
		Salary:      model.Salary{Min: 70000, Max: 90000, Currency: "EUR"},
		PostedBy:    owner,
		CompanyName: "OpenHire GmbH",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validCreateBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(model.CreateJobRequest{
		Title:       "Senior Backend Engineer",
		Description: strings.Repeat("Build and operate distributed services. ", 3),
		Category:    model.JobCategoryBackend,
		Type:        []model.JobType{model.JobTypeFullTime},
		Location:    "Berlin",
		Salary:      model.Salary{Min: 70000, Max: 90000, Currency: "EUR"},
		CompanyName: "OpenHire GmbH",
	})
	require.NoError(t, err)
	return body
}

func TestRouter_Health(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateJob(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().
			Create(gomock.Any(), "hr-1", gomock.Any()).
			Return(sampleJob("job-1", "hr-1", model.JobStatusDraft), nil)
		router := newTestRouter(t, repo)

		rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs", hrToken, validCreateBody(t)))
		require.Equal(t, http.StatusCreated, rec.Code)

		var job model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, model.JobStatusDraft, job.Status)
	})

	t.Run("no token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs", "", validCreateBody(t)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("applicant role rejected by route", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs", applicantToken, validCreateBody(t)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		body, err := json.Marshal(model.CreateJobRequest{Title: "x"})
		require.NoError(t, err)
		rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs", hrToken, body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation")
	})
}

func TestGetJob(t *testing.T) {
	t.Run("published job counts a view", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		job := sampleJob("job-1", "hr-1", model.JobStatusPublished)
		bumped := *job
		bumped.Views = 1
		repo.EXPECT().GetByID(gomock.Any(), "job-1").Return(job, nil)
		repo.EXPECT().
			IncrementCounter(gomock.Any(), core.IncrementParams{ID: "job-1", Counter: model.CounterViews, Delta: 1}).
			Return(&bumped, nil)
		router := newTestRouter(t, repo)

		rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(1), got.Views)
	})

	t.Run("opt out of view counting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().
			GetByID(gomock.Any(), "job-1").
			Return(sampleJob("job-1", "hr-1", model.JobStatusPublished), nil)
		router := newTestRouter(t, repo)

		rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1?incrementViews=false", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, apperrors.NotFound("Job not found"))
		router := newTestRouter(t, repo)

		rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Job not found")
	})
}

func TestSearchJobs(t *testing.T) {
	t.Run("anonymous search defaults to published", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		var captured *model.JobSearchOptions
		repo.EXPECT().
			Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, opts *model.JobSearchOptions) ([]*model.Job, int, error) {
				captured = opts
				return []*model.Job{sampleJob("job-1", "hr-1", model.JobStatusPublished)}, 1, nil
			})
		router := newTestRouter(t, repo)

		target := "/api/jobs?category=backend&minSalary=50000&keyword=go&sortBy=salary&page=2&limit=5"
		rec := doRequest(router, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		require.NotNil(t, captured)
		require.NotNil(t, captured.Status)
		assert.Equal(t, model.JobStatusPublished, *captured.Status)
		require.NotNil(t, captured.Category)
		assert.Equal(t, model.JobCategoryBackend, *captured.Category)
		require.NotNil(t, captured.MinSalary)
		assert.Equal(t, float64(50000), *captured.MinSalary)
		require.NotNil(t, captured.Keyword)
		assert.Equal(t, "go", *captured.Keyword)
		assert.Equal(t, model.SortBySalary, captured.Sort)
		assert.Equal(t, 2, captured.Page)
		assert.Equal(t, 5, captured.Limit)

		var page model.SearchPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
		assert.Len(t, page.Items, 1)
	})

	t.Run("invalid category is a 400", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs?category=wizardry", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid category")
		assert.Contains(t, rec.Body.String(), `"field":"category"`)
	})

	t.Run("anonymous postedBy filter is forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs?postedBy=hr-1", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient_permissions")
	})

	t.Run("postedBy for another poster is forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs?postedBy=hr-1", hr2Token, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("own postedBy filter lifts the published default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		var captured *model.JobSearchOptions
		repo.EXPECT().
			Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, opts *model.JobSearchOptions) ([]*model.Job, int, error) {
				captured = opts
				return nil, 0, nil
			})
		router := newTestRouter(t, repo)

		rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs?postedBy=hr-1", hrToken, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		require.NotNil(t, captured)
		require.NotNil(t, captured.PostedBy)
		assert.Equal(t, "hr-1", *captured.PostedBy)
		assert.Nil(t, captured.Status)
	})

	t.Run("admin may filter by any poster", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().
			Search(gomock.Any(), gomock.Any()).
			Return(nil, 0, nil)
		router := newTestRouter(t, repo)

		rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs?postedBy=hr-1", adminToken, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMyJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	var captured *model.JobSearchOptions
	repo.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, opts *model.JobSearchOptions) ([]*model.Job, int, error) {
			captured = opts
			return nil, 0, nil
		})
	router := newTestRouter(t, repo)

	rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs/my", hrToken, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, captured)
	require.NotNil(t, captured.PostedBy)
	assert.Equal(t, "hr-1", *captured.PostedBy)
	// Owner listings cover all statuses unless narrowed.
	assert.Nil(t, captured.Status)
}

func TestUpdateJob_OwnerOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().
		GetByID(gomock.Any(), "job-1").
		Return(sampleJob("job-1", "hr-1", model.JobStatusDraft), nil)
	router := newTestRouter(t, repo)

	title := "Updated Title Here"
	body, err := json.Marshal(model.JobPatch{Title: &title})
	require.NoError(t, err)

	rec := doRequest(router, authedRequest(http.MethodPatch, "/api/jobs/job-1", hr2Token, body))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized to update this job")
}

func TestPublishJob_DomainConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().
		GetByID(gomock.Any(), "job-1").
		Return(sampleJob("job-1", "hr-1", model.JobStatusPublished), nil)
	router := newTestRouter(t, repo)

	rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs/job-1/publish", hrToken, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job is already published")
}

func TestDeleteJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().
		GetByID(gomock.Any(), "job-1").
		Return(sampleJob("job-1", "hr-1", model.JobStatusDraft), nil)
	repo.EXPECT().Delete(gomock.Any(), "job-1").Return(true, nil)
	router := newTestRouter(t, repo)

	rec := doRequest(router, authedRequest(http.MethodDelete, "/api/jobs/job-1", hrToken, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestApplyToJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	job := sampleJob("job-1", "hr-1", model.JobStatusPublished)
	bumped := *job
	bumped.ApplicantsCount = 1
	repo.EXPECT().GetByID(gomock.Any(), "job-1").Return(job, nil)
	repo.EXPECT().
		IncrementCounter(gomock.Any(), core.IncrementParams{ID: "job-1", Counter: model.CounterApplicants, Delta: 1}).
		Return(&bumped, nil)
	router := newTestRouter(t, repo)

	rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs/job-1/apply", applicantToken, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ApplicantsCount)
}

func TestBookmarks(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	job := sampleJob("job-1", "hr-1", model.JobStatusPublished)
	repo.EXPECT().
		IncrementCounter(gomock.Any(), core.IncrementParams{ID: "job-1", Counter: model.CounterBookmarks, Delta: 1}).
		Return(job, nil)
	repo.EXPECT().
		IncrementCounter(gomock.Any(), core.IncrementParams{ID: "job-1", Counter: model.CounterBookmarks, Delta: -1}).
		Return(job, nil)
	router := newTestRouter(t, repo)

	rec := doRequest(router, authedRequest(http.MethodPost, "/api/jobs/job-1/bookmark", applicantToken, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, authedRequest(http.MethodDelete, "/api/jobs/job-1/bookmark", applicantToken, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPopularTagsAndCategories(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().
		PopularTags(gomock.Any(), 3).
		Return([]model.TagCount{{Tag: "go", Count: 12}}, nil)
	repo.EXPECT().
		CountByCategory(gomock.Any()).
		Return([]model.CategoryCount{{Category: model.JobCategoryBackend, Count: 4}}, nil)
	router := newTestRouter(t, repo)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/tags/popular?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"go"`)

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend"`)
}

func TestStats_AdminOnly(t *testing.T) {
	t.Run("hr is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobRepository(ctrl))

		rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs/stats", hrToken, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads statistics", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		repo.EXPECT().
			Statistics(gomock.Any()).
			Return(&model.JobStatistics{TotalJobs: 7, PublishedJobs: 3}, nil)
		router := newTestRouter(t, repo)

		rec := doRequest(router, authedRequest(http.MethodGet, "/api/jobs/stats", adminToken, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var stats model.JobStatistics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, int64(7), stats.TotalJobs)
	})
}

func TestStoreErrorIsMasked(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	repo.EXPECT().
		GetByID(gomock.Any(), "job-1").
		Return(nil, assert.AnError)
	router := newTestRouter(t, repo)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "A database error occurred")
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
