package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors the controllers map to HTTP status codes and error kinds.
var (
	ErrFormNotFound       = errors.New("form not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrBlastNotFound      = errors.New("blast not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("not allowed to manage this form")

	// ErrDuplicateSubmission: the uniqueness constraint found a prior matching
	// submission. Conflict, not validation.
	ErrDuplicateSubmission = errors.New("a matching submission already exists for this form")

	// ErrConstraintMisconfigured: the request or the form configuration is
	// corrupt (per-field constraint target absent from the payload, or an
	// email-typed field holding a malformed address at write time). Bad
	// request, but distinct from field validation.
	ErrConstraintMisconfigured = errors.New("submission conflicts with the form's configuration")
)

// ValidationError carries every violation found in one pass so the submitter
// can fix everything in a single round-trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
