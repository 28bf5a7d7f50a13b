package repositories

import (
	"context"
	"errors"

	"github.com/spaceventure/server/domain/entities"
)

// ErrDuplicateEmail is returned by Create when the email is already registered.
// The backing store enforces uniqueness, so this is also the authoritative
// outcome of two concurrent registrations racing on the same email.
var ErrDuplicateEmail = errors.New("account email already registered")

// AccountRepository defines data access methods for accounts
type AccountRepository interface {
	// Create persists a fully built account. Returns ErrDuplicateEmail when
	// the unique email constraint is violated.
	Create(ctx context.Context, account *entities.Account) error
	// GetByEmail returns the account with the given (normalized) email,
	// or nil without error when none exists.
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
}
