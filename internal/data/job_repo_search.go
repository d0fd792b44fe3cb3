package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openhire/jobboard-api/internal/data/database"
	"github.com/openhire/jobboard-api/internal/data/pgxutil"
	"github.com/openhire/jobboard-api/internal/domain/model"
)

// buildSearchConditions translates search filters into builder conditions.
// Salary bounds are a range-overlap test, not exact containment: a requested
// minimum matches jobs whose salary_max reaches it, and a requested maximum
// matches jobs whose salary_min stays under it.
func buildSearchConditions(opts *model.JobSearchOptions) []database.Condition {
	conds := []database.Condition{}

	if opts.Status != nil {
		conds = append(conds, database.WhereCond("status", database.Equal, string(*opts.Status)))
	}
	if opts.PostedBy != nil {
		conds = append(conds, database.WhereCond("posted_by", database.Equal, *opts.PostedBy))
	}
	if opts.Category != nil {
		conds = append(conds, database.WhereCond("category", database.Equal, string(*opts.Category)))
	}
	if opts.Type != nil {
		conds = append(conds, database.WhereRawCond("$1 = ANY (type)", string(*opts.Type)))
	}
	if opts.Location != nil {
		conds = append(conds, database.WhereCond("location", database.ILike, "%"+*opts.Location+"%"))
	}
	if opts.IsRemote != nil {
		conds = append(conds, database.WhereCond("is_remote", database.Equal, *opts.IsRemote))
	}
	if opts.MinSalary != nil {
		conds = append(conds, database.WhereCond("salary_max", database.GreaterThanOrEqual, *opts.MinSalary))
	}
	if opts.MaxSalary != nil {
		conds = append(conds, database.WhereCond("salary_min", database.LessThanOrEqual, *opts.MaxSalary))
	}
	if opts.Keyword != nil {
		conds = append(conds, database.WhereRawCond(
			"search_vector @@ plainto_tsquery('english', $1)", *opts.Keyword))
	}

	return conds
}

// searchOrderOptions returns the ORDER BY options for the requested sort.
// A keyword overrides the requested sort with relevance ranking; text match
// quality dominates.
func searchOrderOptions(opts *model.JobSearchOptions) []database.ListQueryOption {
	if opts.Keyword != nil {
		return []database.ListQueryOption{
			database.WithRawOrderBy(
				"ts_rank(search_vector, plainto_tsquery('english', $1)) DESC, created_at DESC",
				*opts.Keyword,
			),
		}
	}

	switch opts.Sort {
	case model.SortByRecent, model.SortByDate:
		// NULLS LAST keeps never-published rows (draft published_at is NULL)
		// below fresh published jobs in owner listings.
		return []database.ListQueryOption{
			database.WithOrderBy("published_at", "DESC NULLS LAST"),
			database.WithOrderBy("created_at", "DESC"),
		}
	case model.SortByPopularity:
		return []database.ListQueryOption{
			database.WithOrderBy("views", "DESC"),
			database.WithOrderBy("applicants_count", "DESC"),
			database.WithOrderBy("created_at", "DESC"),
		}
	case model.SortBySalary:
		return []database.ListQueryOption{
			database.WithOrderBy("salary_max", "DESC"),
			database.WithOrderBy("salary_min", "DESC"),
			database.WithOrderBy("created_at", "DESC"),
		}
	default:
		return []database.ListQueryOption{
			database.WithOrderBy("created_at", "DESC"),
		}
	}
}

// Search executes a filtered, sorted, paginated job query and returns the
// page of jobs plus the total match count. Visibility policy (the default
// published filter) is the caller's responsibility.
func (r *JobRepo) Search(
	ctx context.Context,
	opts *model.JobSearchOptions,
) ([]*model.Job, int, error) {
	if opts == nil {
		opts = &model.JobSearchOptions{}
	}

	conds := buildSearchConditions(opts)
	offset := (opts.Page - 1) * opts.Limit
	if offset < 0 {
		offset = 0
	}

	countQuery, countArgs := database.BuildListQuery(database.NewListQueryOptions("jobs",
		database.WithCountOnly(),
		database.WithConditions(conds...),
	))

	dataOpts := []database.ListQueryOption{
		database.WithColumns(jobColumnList...),
		database.WithConditions(conds...),
		database.WithLimit(opts.Limit),
		database.WithOffset(offset),
	}
	dataOpts = append(dataOpts, searchOrderOptions(opts)...)
	dataQuery, dataArgs := database.BuildListQuery(database.NewListQueryOptions("jobs", dataOpts...))

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	jobs := []*model.Job{}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, dataQuery, dataArgs...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		for rows.Next() {
			job, serr := scanJobFromRow(rows)
			if serr != nil {
				return serr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search jobs: %w", err)
	}

	return jobs, total, nil
}

// PopularTags returns the most frequent skills across published jobs.
func (r *JobRepo) PopularTags(ctx context.Context, limit int) ([]model.TagCount, error) {
	if limit <= 0 {
		return []model.TagCount{}, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT skill, COUNT(*) AS cnt
		FROM jobs, unnest(skills) AS skill
		WHERE status = 'published'
		GROUP BY skill
		ORDER BY cnt DESC, skill ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := []model.TagCount{}
	for rows.Next() {
		var tc model.TagCount
		if scanErr := rows.Scan(&tc.Tag, &tc.Count); scanErr != nil {
			return nil, fmt.Errorf("scan popular tag: %w", scanErr)
		}
		tags = append(tags, tc)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("popular tags rows: %w", rowsErr)
	}
	return tags, nil
}

// CountByCategory returns the number of published jobs per category,
// most populous first.
func (r *JobRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT category, COUNT(*) AS cnt
		FROM jobs
		WHERE status = 'published'
		GROUP BY category
		ORDER BY cnt DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := []model.CategoryCount{}
	for rows.Next() {
		var cc model.CategoryCount
		if scanErr := rows.Scan(&cc.Category, &cc.Count); scanErr != nil {
			return nil, fmt.Errorf("scan category count: %w", scanErr)
		}
		counts = append(counts, cc)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("category count rows: %w", rowsErr)
	}
	return counts, nil
}

// Statistics aggregates totals, per-status counts, and the average salary
// midpoint across all jobs.
func (r *JobRepo) Statistics(ctx context.Context) (*model.JobStatistics, error) {
	var s model.JobStatistics
	err := r.DB.QueryRowContext(ctx, `
	  SELECT
	    count(*)                                        AS total_jobs,
	    count(*) FILTER (WHERE status = 'published')    AS published_jobs,
	    count(*) FILTER (WHERE status = 'draft')        AS draft_jobs,
	    count(*) FILTER (WHERE status = 'closed')       AS closed_jobs,
	    count(*) FILTER (WHERE status = 'expired')      AS expired_jobs,
	    COALESCE(sum(views), 0)                         AS total_views,
	    COALESCE(sum(applicants_count), 0)              AS total_applicants,
	    COALESCE(avg((salary_min + salary_max) / 2.0), 0) AS avg_salary
	  FROM jobs
	`).Scan(
		&s.TotalJobs,
		&s.PublishedJobs,
		&s.DraftJobs,
		&s.ClosedJobs,
		&s.ExpiredJobs,
		&s.TotalViews,
		&s.TotalApplicants,
		&s.AvgSalary,
	)
	if err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}
	return &s, nil
}
