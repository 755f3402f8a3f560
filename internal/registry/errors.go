package registry

import (
	"errors"
	"fmt"
)

// Failure kinds returned by registry operations. Callers match them with errors.Is.
var (
	// ErrUnauthorized means the caller is not the record's originator.
	ErrUnauthorized = errors.New("caller is not the originator")
	// ErrMalformedInput means a field failed its shape, length, enum or self-reference check.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNotFound means the vault id has no stored record or was never allocated.
	ErrNotFound = errors.New("vault not found")
	// ErrGrantNotFound means the record exists but holds no grant for the grantee.
	// It matches ErrNotFound as well.
	ErrGrantNotFound = &notFoundError{msg: "grant not found"}
	// ErrContentValidation means the summary or the label collection failed its check.
	ErrContentValidation = errors.New("content validation failed")
	// ErrCategoryValidation means the classification failed its check.
	ErrCategoryValidation = errors.New("category validation failed")
	// ErrTemporalBoundary means a delegation duration is zero or above MaxDuration.
	ErrTemporalBoundary = errors.New("duration outside temporal boundary")
	// ErrAuthorizationLevel means the tier is not one of the recognized values.
	ErrAuthorizationLevel = errors.New("unrecognized authorization tier")
)

// FieldError reports which input field tripped a check.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

func fieldErr(kind error, field string) error {
	return &FieldError{Field: field, Err: kind}
}

// Kind maps an error to its stable wire name. Unknown errors are "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrContentValidation):
		return "content_validation_failure"
	case errors.Is(err, ErrCategoryValidation):
		return "category_validation_failure"
	case errors.Is(err, ErrTemporalBoundary):
		return "temporal_boundary_violation"
	case errors.Is(err, ErrAuthorizationLevel):
		return "authorization_level_mismatch"
	default:
		return "internal"
	}
}
