package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_Nil(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("get job: %w", pgx.ErrNoRows))
	if !IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Error("cause should remain reachable via errors.Is")
	}
}

func TestMapDBError_CheckViolation(t *testing.T) {
	t.Run("with column", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "salary_min"}
		err := MapDBError(pgErr)
		if !IsValidation(err) {
			t.Fatalf("expected validation, got %v", err)
		}
		if got := GetField(err); got != "salary_min" {
			t.Errorf("Field = %q, want %q", got, "salary_min")
		}
	})

	t.Run("without column", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
		if !IsValidation(err) {
			t.Fatalf("expected validation, got %v", err)
		}
		if got := GetField(err); got != "" {
			t.Errorf("Field = %q, want empty", got)
		}
	})
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "title"}
	err := MapDBError(pgErr)
	if !IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}
	if got := GetField(err); got != "title" {
		t.Errorf("Field = %q, want %q", got, "title")
	}
}

func TestMapDBError_ConstraintViolations(t *testing.T) {
	for _, code := range []string{pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation} {
		err := MapDBError(&pgconn.PgError{Code: code})
		if !IsValidation(err) {
			t.Errorf("code %s: expected validation, got %v", code, err)
		}
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	err := MapDBError(pgErr)
	if !IsStore(err) {
		t.Fatalf("expected store, got %v", err)
	}
	if !errors.Is(err, pgErr) {
		t.Error("cause should remain reachable via errors.Is")
	}
}

func TestMapDBError_WrappedPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "status"}
	err := MapDBError(fmt.Errorf("insert job: %w", pgErr))
	if !IsValidation(err) {
		t.Fatalf("expected validation through wrapping, got %v", err)
	}
}

func TestMapDBError_UnrecognizedErrorPassesThrough(t *testing.T) {
	orig := errors.New("dial tcp: connection refused")
	if err := MapDBError(orig); !errors.Is(err, orig) {
		t.Errorf("unrecognized error should pass through, got %v", err)
	}
	var appErr *AppError
	if errors.As(MapDBError(orig), &appErr) {
		t.Error("unrecognized error must not be reclassified as AppError")
	}
}
