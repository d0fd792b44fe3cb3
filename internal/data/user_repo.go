package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openhire/jobboard-api/internal/data/pgxutil"
	"github.com/openhire/jobboard-api/internal/domain/model"
)

// UserRepo resolves poster ids to the lightweight user projection embedded in
// search results. It implements core.UserDirectory.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo backed by the given database handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// GetRefsByIDs looks up refs for the given user ids. Ids that do not resolve
// are absent from the returned map; callers must tolerate missing entries.
func (r *UserRepo) GetRefsByIDs(ctx context.Context, ids []string) (map[string]*model.UserRef, error) {
	refs := make(map[string]*model.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx,
			`SELECT id, name, email FROM users WHERE id = ANY ($1)`, ids)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		for rows.Next() {
			var ref model.UserRef
			if serr := rows.Scan(&ref.ID, &ref.Name, &ref.Email); serr != nil {
				return serr
			}
			refs[ref.ID] = &ref
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get user refs: %w", err)
	}

	return refs, nil
}
