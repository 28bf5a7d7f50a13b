package usecase

import (
	"errors"
	"fmt"

	"github.com/spaceventure/server/internal/validation"
)

var (
	// ErrDuplicateAccount means the email is already registered
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrUpstreamFetch means the remote profile picture could not be retrieved
	ErrUpstreamFetch = errors.New("failed to fetch remote profile picture")
	// ErrStorageUpload means object storage rejected the profile picture
	ErrStorageUpload = errors.New("failed to upload profile picture")
	// ErrHashing means password hashing itself failed
	ErrHashing = errors.New("failed to hash credentials")
)

// ValidationError carries the complete list of field-level violations
// found in a registration attempt.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("registration input invalid: %d violation(s)", len(e.Violations))
}
