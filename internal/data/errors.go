package data

import (
	"errors"

	apperrors "github.com/openhire/jobboard-api/internal/errors"
)

// Shared sentinel errors for data-layer repositories. The caller-facing
// sentinels carry AppError codes so upper layers can classify them with the
// apperrors.Is* helpers without depending on this package.
var (
	// Job repository sentinels.
	ErrJobNotFound     = apperrors.NotFound("Job not found")
	ErrEmptyPatch      = apperrors.Validation("No fields to update")
	ErrInvalidCounter  = errors.New("unknown counter column")
	ErrJobIDRequired   = errors.New("job id is required")
	ErrInvalidJobField = errors.New("job field rejected by the database")

	// User repository sentinels.
	ErrUserNotFound = apperrors.NotFound("User not found")
)
