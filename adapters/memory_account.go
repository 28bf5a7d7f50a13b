package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spaceventure/server/domain/entities"
	"github.com/spaceventure/server/domain/repositories"
)

// MemoryAccountRepository is an in-memory implementation of AccountRepository.
// It enforces the same unique-email semantics as the MongoDB repository and is
// used when no document store is configured, and in tests.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*entities.Account // normalized email -> account
}

// NewMemoryAccountRepository creates an empty in-memory account repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]*entities.Account),
	}
}

// Create implements repositories.AccountRepository
func (m *MemoryAccountRepository) Create(ctx context.Context, account *entities.Account) error {
	if account == nil {
		return errors.New("account cannot be nil")
	}
	if err := account.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := entities.NormalizeEmail(account.Email)
	if _, exists := m.accounts[email]; exists {
		return repositories.ErrDuplicateEmail
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	stored := *account
	m.accounts[email] = &stored
	return nil
}

// GetByEmail implements repositories.AccountRepository
func (m *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, exists := m.accounts[entities.NormalizeEmail(email)]
	if !exists {
		return nil, nil
	}

	copied := *account
	return &copied, nil
}
