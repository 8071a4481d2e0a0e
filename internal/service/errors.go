package service

import (
	"errors"
	"fmt"
)

// Service-level error taxonomy. The services never retry internally; they
// surface typed failures and let callers decide retry policy.
var (
	// ErrValidation marks caller mistakes: bad enum value, missing file,
	// out-of-range field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned on failed login or password change.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound covers both a genuinely missing record and a record the
	// requester may not access. The two are deliberately indistinguishable
	// so callers cannot probe for the existence of other users' records.
	ErrNotFound = errors.New("record not found")
	// ErrStorage marks a transient object-store failure; safe to retry.
	ErrStorage = errors.New("storage unavailable")
)

// PartialFailureError reports the one known partial-failure window: the
// ciphertext was written to storage but the metadata write failed and the
// blob could not be cleaned up. OrphanedKey identifies the blob for
// reconciliation; it must be logged, never swallowed.
type PartialFailureError struct {
	OrphanedKey string
	Err         error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("metadata write failed with orphaned blob %s: %v", e.OrphanedKey, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
