package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/openhire/jobboard-api/internal/errors"

	"github.com/openhire/jobboard-api/internal/core"
	"github.com/openhire/jobboard-api/internal/data/pgxutil"
	"github.com/openhire/jobboard-api/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job posting management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

// jobColumnList is the canonical column order for job row scans.
var jobColumnList = []string{
	"id",
	"title",
	"description",
	"requirements",
	"skills",
	"category",
	"type",
	"location",
	"is_remote",
	"salary_min",
	"salary_max",
	"salary_currency",
	"duration",
	"application_deadline",
	"posted_by",
	"company_name",
	"company_logo",
	"company_cover_image",
	"status",
	"views",
	"applicants_count",
	"bookmarks_count",
	"expires_at",
	"published_at",
	"created_at",
	"updated_at",
}

var jobColumns = strings.Join(jobColumnList, ", ")

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	requirements, skills, types             []string
	duration, companyLogo, companyCover     sql.NullString
	applicationDeadline, expires, published sql.NullTime
	createdAt, updatedAt                    time.Time
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.Title,
		&job.Description,
		&d.requirements,
		&d.skills,
		&job.Category,
		&d.types,
		&job.Location,
		&job.IsRemote,
		&job.Salary.Min,
		&job.Salary.Max,
		&job.Salary.Currency,
		&d.duration,
		&d.applicationDeadline,
		&job.PostedBy,
		&job.CompanyName,
		&d.companyLogo,
		&d.companyCover,
		&job.Status,
		&job.Views,
		&job.ApplicantsCount,
		&job.BookmarksCount,
		&d.expires,
		&d.published,
		&d.createdAt,
		&d.updatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	job.Requirements = cloneStrings(d.requirements)
	job.Skills = cloneStrings(d.skills)
	job.Type = toJobTypes(d.types)
	job.Duration = d.duration.String
	job.CompanyLogo = d.companyLogo.String
	job.CompanyCoverImage = d.companyCover.String
	job.ApplicationDeadline = nullableMillis(d.applicationDeadline)
	job.ExpiresAt = nullableMillis(d.expires)
	job.PublishedAt = nullableMillis(d.published)
	job.CreatedAt = model.NewUnixMillis(d.createdAt.UTC())
	job.UpdatedAt = model.NewUnixMillis(d.updatedAt.UTC())
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

func toJobTypes(in []string) []model.JobType {
	out := make([]model.JobType, 0, len(in))
	for _, s := range in {
		out = append(out, model.JobType(s))
	}
	return out
}

func jobTypeStrings(in []model.JobType) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, string(t))
	}
	return out
}

func nullableMillis(nt sql.NullTime) *model.UnixMillis {
	if !nt.Valid {
		return nil
	}
	m := model.NewUnixMillis(nt.Time.UTC())
	return &m
}

func nullableTime(m *model.UnixMillis) any {
	if m == nil {
		return nil
	}
	return m.Time.UTC()
}

// Create inserts a new job posting in draft status and returns the stored record.
func (r *JobRepo) Create(
	ctx context.Context,
	postedBy string,
	req *model.CreateJobRequest,
) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if strings.TrimSpace(postedBy) == "" {
		return nil, errors.New("posted_by is required")
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, validateErr
	}

	now := r.timeProvider.Now().UTC()
	query := `
      INSERT INTO jobs(
        title, description, requirements, skills, category, type, location,
        is_remote, salary_min, salary_max, salary_currency, duration,
        application_deadline, posted_by, company_name, company_logo,
        company_cover_image, status, expires_at, created_at, updated_at
      )
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,'draft',$18,$19,$19)
      RETURNING ` + jobColumns

	args := []any{
		req.Title,
		req.Description,
		cloneStrings(req.Requirements),
		cloneStrings(req.Skills),
		req.Category,
		jobTypeStrings(req.Type),
		req.Location,
		req.IsRemote,
		req.Salary.Min,
		req.Salary.Max,
		req.Salary.Currency,
		nullableString(req.Duration),
		nullableTime(req.ApplicationDeadline),
		postedBy,
		req.CompanyName,
		nullableString(req.CompanyLogo),
		nullableString(req.CompanyCoverImage),
		nullableTime(req.ExpiresAt),
		now,
	}

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("insert job: %w", err))
	}
	return job, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetByID retrieves a job posting by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrJobIDRequired
	}

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// buildPatchClause translates the set fields of a patch into SET fragments.
// Parameter numbering starts at startParam.
func buildPatchClause(patch *model.JobPatch, startParam int) ([]string, []any) {
	setParts := []string{}
	args := []any{}
	param := startParam

	add := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, param))
		args = append(args, value)
		param++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Requirements != nil {
		add("requirements", cloneStrings(*patch.Requirements))
	}
	if patch.Skills != nil {
		add("skills", cloneStrings(*patch.Skills))
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Type != nil {
		add("type", jobTypeStrings(*patch.Type))
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.IsRemote != nil {
		add("is_remote", *patch.IsRemote)
	}
	if patch.Salary != nil {
		if patch.Salary.Min != nil {
			add("salary_min", *patch.Salary.Min)
		}
		if patch.Salary.Max != nil {
			add("salary_max", *patch.Salary.Max)
		}
		if patch.Salary.Currency != nil {
			add("salary_currency", *patch.Salary.Currency)
		}
	}
	if patch.Duration != nil {
		add("duration", nullableString(*patch.Duration))
	}
	if patch.ApplicationDeadline != nil {
		add("application_deadline", patch.ApplicationDeadline.Time.UTC())
	}
	if patch.ExpiresAt != nil {
		add("expires_at", patch.ExpiresAt.Time.UTC())
	}
	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.CompanyLogo != nil {
		add("company_logo", nullableString(*patch.CompanyLogo))
	}
	if patch.CompanyCoverImage != nil {
		add("company_cover_image", nullableString(*patch.CompanyCoverImage))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}

	return setParts, args
}

// UpdateByID applies a typed patch and returns the post-update record.
// The patch cannot express published_at, posted_by, or the counters, so
// those columns are untouchable through this path by construction.
func (r *JobRepo) UpdateByID(
	ctx context.Context,
	id string,
	patch *model.JobPatch,
) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrJobIDRequired
	}
	if patch == nil || patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	setParts, args := buildPatchClause(patch, 2)
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", len(args)+2))
	args = append(args, r.timeProvider.Now().UTC())

	query := `
		UPDATE jobs
		SET ` + strings.Join(setParts, ",\n\t\t    ") + `
		WHERE id = $1
		RETURNING ` + jobColumns
	queryArgs := append([]any{id}, args...)

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, queryArgs...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("update job: %w", err))
	}
	return job, nil
}

// UpdateStatus writes a lifecycle transition. published_at and expires_at
// are written only when the params carry them, so unpublish retains the
// historical publish timestamp.
func (r *JobRepo) UpdateStatus(
	ctx context.Context,
	params core.UpdateStatusParams,
) (*model.Job, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrJobIDRequired
	}
	if !params.Status.Valid() {
		return nil, fmt.Errorf("invalid job status: %q", params.Status)
	}

	setParts := []string{"status = $2"}
	args := []any{params.ID, params.Status}
	param := 3

	if params.PublishedAt != nil {
		setParts = append(setParts, fmt.Sprintf("published_at = $%d", param))
		args = append(args, params.PublishedAt.UTC())
		param++
	}
	if params.ExpiresAt != nil {
		setParts = append(setParts, fmt.Sprintf("expires_at = $%d", param))
		args = append(args, params.ExpiresAt.UTC())
		param++
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", param))
	args = append(args, r.timeProvider.Now().UTC())

	query := `
		UPDATE jobs
		SET ` + strings.Join(setParts, ", ") + `
		WHERE id = $1
		RETURNING ` + jobColumns

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("update job status: %w", err))
	}
	return job, nil
}

// Delete removes a job posting. Returns false when the id does not exist.
// Removal is immediate and final; there is no soft-delete tombstone.
func (r *JobRepo) Delete(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, ErrJobIDRequired
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete job rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// counterColumns whitelists the columns reachable through IncrementCounter.
var counterColumns = map[model.Counter]string{
	model.CounterViews:      "views",
	model.CounterApplicants: "applicants_count",
	model.CounterBookmarks:  "bookmarks_count",
}

// IncrementCounter atomically adjusts a counter in a single statement and
// returns the post-increment record. GREATEST keeps a decrement from
// driving a counter below zero.
func (r *JobRepo) IncrementCounter(
	ctx context.Context,
	params core.IncrementParams,
) (*model.Job, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrJobIDRequired
	}
	column, ok := counterColumns[params.Counter]
	if !ok {
		return nil, ErrInvalidCounter
	}

	query := fmt.Sprintf(`
		UPDATE jobs
		SET %s = GREATEST(%s + $2, 0), updated_at = $3
		WHERE id = $1
		RETURNING `, column, column) + jobColumns

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, params.ID, params.Delta, r.timeProvider.Now().UTC())
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment %s: %w", column, err)
	}
	return job, nil
}

// ExpireDue transitions every published job whose expiry cutoff has passed
// to expired in one statement. A single update-many avoids a check/act gap
// against concurrent publishes; repeated sweeps with nothing due return 0.
func (r *JobRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'expired', updated_at = $2
		WHERE status = 'published'
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
	`, now.UTC(), r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire due jobs: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire due rows affected: %w", err)
	}
	return rowsAffected, nil
}
