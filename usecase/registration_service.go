package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spaceventure/server/domain/entities"
	"github.com/spaceventure/server/domain/repositories"
	"github.com/spaceventure/server/internal/auth"
	"github.com/spaceventure/server/internal/validation"
)

// RegistrationRequest is the inbound field set of one registration attempt.
// PictureData carries the uploaded file for form signups; PictureURL carries
// the provider-hosted image location for federated signups.
type RegistrationRequest struct {
	Name            string
	Email           string
	Password        string
	Phone           string
	Address         string
	Organization    string
	DateOfBirth     string
	AccountCategory string
	IsFederated     bool
	PictureURL      string
	PictureData     []byte
}

// RegistrationService orchestrates account creation: uniqueness check,
// validation, image ingestion, credential hashing and persistence, strictly
// in that order and terminal on the first failure.
type RegistrationService struct {
	accounts repositories.AccountRepository
	ingestor *ImageIngestor
	hasher   *auth.PasswordHasher
	logger   *zap.Logger
}

// NewRegistrationService creates a registration service
func NewRegistrationService(accounts repositories.AccountRepository, ingestor *ImageIngestor, hasher *auth.PasswordHasher, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		accounts: accounts,
		ingestor: ingestor,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register runs one registration attempt end to end. On success the created
// account is returned; its JSON form never exposes the password hash.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest) (*entities.Account, error) {
	// An absent email cannot collide with anything; leave it to the
	// validator so the caller gets a field violation, not a fault.
	if email := entities.NormalizeEmail(req.Email); email != "" {
		existing, err := s.accounts.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		if existing != nil {
			return nil, ErrDuplicateAccount
		}
	}

	reg, violations := validation.ValidateRegistration(validation.Input{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Phone:           req.Phone,
		Address:         req.Address,
		Organization:    req.Organization,
		DateOfBirth:     req.DateOfBirth,
		AccountCategory: req.AccountCategory,
		IsFederated:     req.IsFederated,
	})
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	picture, err := s.resolvePicture(ctx, req)
	if err != nil {
		return nil, err
	}

	var account *entities.Account
	if reg.IsFederated {
		account = entities.NewFederatedAccount(reg.Name, reg.Email, reg.Category)
	} else {
		hash, err := s.hasher.Hash(reg.Password)
		if err != nil {
			s.logger.Error("Password hashing failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrHashing, err)
		}
		account = entities.NewLocalAccount(reg.Name, reg.Email, hash, reg.Phone, reg.Address, reg.Organization, reg.DateOfBirth, reg.Category)
	}

	if picture != nil {
		if v := validation.ValidateProfilePicture(*picture); len(v) > 0 {
			return nil, &ValidationError{Violations: v}
		}
		if err := account.AttachProfilePicture(*picture); err != nil {
			return nil, err
		}
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		// A duplicate surfacing only here means we lost a race with a
		// concurrent registration for the same email.
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to persist account: %w", err)
	}

	s.logger.Info("Account registered",
		zap.String("account_id", account.ID.Hex()),
		zap.String("email", account.Email),
		zap.Bool("federated", account.IsFederated),
		zap.Bool("has_picture", account.ProfilePicture != nil))

	return account, nil
}

// resolvePicture runs the ingestion path matching the signup mode. Having no
// picture at all is legal on both paths.
func (s *RegistrationService) resolvePicture(ctx context.Context, req RegistrationRequest) (*entities.ProfilePicture, error) {
	if req.IsFederated {
		if req.PictureURL == "" {
			return nil, nil
		}
		return s.ingestor.FromURL(ctx, req.PictureURL)
	}
	if len(req.PictureData) == 0 {
		return nil, nil
	}
	return s.ingestor.FromBuffer(ctx, req.PictureData)
}
