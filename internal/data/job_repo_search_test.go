package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhire/jobboard-api/internal/data/database"
	"github.com/openhire/jobboard-api/internal/domain/model"
)

func ptrTo[T any](v T) *T { return &v }

// buildDataQuery mirrors the data-query assembly in Search so the generated
// SQL can be asserted without a live database.
func buildDataQuery(opts *model.JobSearchOptions) (string, []any) {
	conds := buildSearchConditions(opts)
	dataOpts := []database.ListQueryOption{
		database.WithColumns("id", "title"),
		database.WithConditions(conds...),
	}
	dataOpts = append(dataOpts, searchOrderOptions(opts)...)
	return database.BuildListQuery(database.NewListQueryOptions("jobs", dataOpts...))
}

func TestBuildSearchConditions_SalaryOverlap(t *testing.T) {
	opts := &model.JobSearchOptions{
		MinSalary: ptrTo(50000.0),
		MaxSalary: ptrTo(90000.0),
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("jobs",
		database.WithCountOnly(),
		database.WithConditions(buildSearchConditions(opts)...),
	))

	// The requested minimum is checked against salary_max and vice versa:
	// any overlap between the requested and offered ranges matches.
	assert.Contains(t, query, `"salary_max" >= $1`)
	assert.Contains(t, query, `"salary_min" <= $2`)
	assert.Equal(t, []any{50000.0, 90000.0}, args)
}

func TestBuildSearchConditions_TypeUsesArrayContains(t *testing.T) {
	opts := &model.JobSearchOptions{Type: ptrTo(model.JobTypeRemote)}

	query, args := buildDataQuery(opts)

	assert.Contains(t, query, "$1 = ANY (type)")
	assert.Equal(t, []any{"remote"}, args)
}

func TestBuildSearchConditions_CombinedFilters(t *testing.T) {
	opts := &model.JobSearchOptions{
		Status:   ptrTo(model.JobStatusPublished),
		Category: ptrTo(model.JobCategoryBackend),
		Location: ptrTo("berlin"),
		IsRemote: ptrTo(true),
		PostedBy: ptrTo("hr-1"),
	}

	query, args := buildDataQuery(opts)

	assert.Contains(t, query, `"status" = $1`)
	assert.Contains(t, query, `"posted_by" = $2`)
	assert.Contains(t, query, `"category" = $3`)
	assert.Contains(t, query, `"location" ILIKE $4`)
	assert.Contains(t, query, `"is_remote" = $5`)
	assert.Equal(t, []any{"published", "hr-1", "backend", "%berlin%", true}, args)
}

func TestBuildSearchConditions_Empty(t *testing.T) {
	conds := buildSearchConditions(&model.JobSearchOptions{})
	assert.Empty(t, conds)

	query, args := buildDataQuery(&model.JobSearchOptions{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestSearchOrderOptions_KeywordRanksByRelevance(t *testing.T) {
	opts := &model.JobSearchOptions{
		Keyword: ptrTo("golang"),
		Sort:    model.SortBySalary, // relevance wins over the requested sort
	}

	query, args := buildDataQuery(opts)

	require.Contains(t, query, "search_vector @@ plainto_tsquery('english', $1)")
	assert.Contains(t, query,
		"ORDER BY ts_rank(search_vector, plainto_tsquery('english', $2)) DESC, created_at DESC")
	// The keyword binds twice: once for the match, once for the ranking.
	assert.Equal(t, []any{"golang", "golang"}, args)
}

func TestSearchOrderOptions_Sorts(t *testing.T) {
	tests := []struct {
		name string
		sort model.SortBy
		want string
	}{
		{
			name: "recent puts unpublished last",
			sort: model.SortByRecent,
			want: `ORDER BY "published_at" DESC NULLS LAST, "created_at" DESC`,
		},
		{
			name: "date aliases recent",
			sort: model.SortByDate,
			want: `ORDER BY "published_at" DESC NULLS LAST, "created_at" DESC`,
		},
		{
			name: "popularity",
			sort: model.SortByPopularity,
			want: `ORDER BY "views" DESC, "applicants_count" DESC, "created_at" DESC`,
		},
		{
			name: "salary",
			sort: model.SortBySalary,
			want: `ORDER BY "salary_max" DESC, "salary_min" DESC, "created_at" DESC`,
		},
		{
			name: "default",
			sort: "",
			want: `ORDER BY "created_at" DESC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildDataQuery(&model.JobSearchOptions{Sort: tt.sort})
			assert.Contains(t, query, tt.want)
			assert.Empty(t, args)
		})
	}
}

func TestSearchPagination_PlaceholdersFollowConditions(t *testing.T) {
	opts := &model.JobSearchOptions{
		Status: ptrTo(model.JobStatusPublished),
		Page:   3,
		Limit:  20,
	}
	conds := buildSearchConditions(opts)
	offset := (opts.Page - 1) * opts.Limit

	dataOpts := []database.ListQueryOption{
		database.WithColumns("id"),
		database.WithConditions(conds...),
		database.WithLimit(opts.Limit),
		database.WithOffset(offset),
	}
	dataOpts = append(dataOpts, searchOrderOptions(opts)...)
	query, args := database.BuildListQuery(database.NewListQueryOptions("jobs", dataOpts...))

	assert.Contains(t, query, "LIMIT $2")
	assert.Contains(t, query, "OFFSET $3")
	assert.Equal(t, []any{"published", 20, 40}, args)
}
