package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spaceventure/server/domain/entities"
	"github.com/spaceventure/server/domain/repositories"
)

// AccountRepository implements repositories.AccountRepository backed by MongoDB
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a MongoDB account repository and ensures the
// unique index on email. The index is what makes concurrent registrations for
// the same email resolve to exactly one persisted account.
func NewAccountRepository(db *mongo.Database) (*AccountRepository, error) {
	collection := db.Collection("accounts")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, emailIndex); err != nil {
		return nil, fmt.Errorf("failed to create email index: %w", err)
	}

	return &AccountRepository{collection: collection}, nil
}

// Create implements repositories.AccountRepository
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	if account == nil {
		return errors.New("account cannot be nil")
	}
	if err := account.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByEmail implements repositories.AccountRepository
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}

	var account entities.Account
	err := r.collection.FindOne(ctx, bson.M{"email": entities.NormalizeEmail(email)}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No account found, return nil without error
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}
