package entities

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountCategory represents the fixed role label assigned at signup
type AccountCategory string

const (
	CategoryEndUser          AccountCategory = "End-User"
	CategoryMultiSiteManager AccountCategory = "Multi-Site Manager"
	CategoryFacilityOwner    AccountCategory = "Facility Owner"
)

// Valid reports whether the category is one of the known roles
func (c AccountCategory) Valid() bool {
	switch c {
	case CategoryEndUser, CategoryMultiSiteManager, CategoryFacilityOwner:
		return true
	}
	return false
}

// ProfilePicture is the durable reference to an uploaded image.
// URL and StorageID are always set together or not at all.
type ProfilePicture struct {
	URL       string `json:"url" bson:"url"`
	StorageID string `json:"storage_id" bson:"storage_id"`
}

// Account represents a registered user account
type Account struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	PasswordHash   string             `json:"-" bson:"password_hash,omitempty"`
	Phone          string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address        string             `json:"address,omitempty" bson:"address,omitempty"`
	Organization   string             `json:"organization,omitempty" bson:"organization,omitempty"`
	DateOfBirth    *time.Time         `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Category       AccountCategory    `json:"account_category" bson:"account_category"`
	ProfilePicture *ProfilePicture    `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	IsFederated    bool               `json:"is_federated_signup" bson:"is_federated_signup"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewLocalAccount creates an account for a form signup. The password hash is
// mandatory; profile fields are the caller's responsibility to validate first.
func NewLocalAccount(name, email, passwordHash, phone, address, organization string, dateOfBirth time.Time, category AccountCategory) *Account {
	now := time.Now()
	return &Account{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Phone:        phone,
		Address:      address,
		Organization: organization,
		DateOfBirth:  &dateOfBirth,
		Category:     category,
		IsFederated:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewFederatedAccount creates an account whose identity was verified by an
// external provider. It never carries a password hash or the form-only fields.
func NewFederatedAccount(name, email string, category AccountCategory) *Account {
	now := time.Now()
	return &Account{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Email:       NormalizeEmail(email),
		Category:    category,
		IsFederated: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NormalizeEmail lowercases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AttachProfilePicture sets the picture reference, rejecting partial references
func (a *Account) AttachProfilePicture(pic ProfilePicture) error {
	if pic.URL == "" || pic.StorageID == "" {
		return errors.New("profile picture requires both url and storage id")
	}
	a.ProfilePicture = &pic
	return nil
}

// Validate checks the structural invariants of a fully built account
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	if !a.Category.Valid() {
		return errors.New("unknown account category")
	}
	if a.IsFederated && a.PasswordHash != "" {
		return errors.New("federated account must not carry a password hash")
	}
	if !a.IsFederated && a.PasswordHash == "" {
		return errors.New("local account requires a password hash")
	}
	if a.ProfilePicture != nil && (a.ProfilePicture.URL == "" || a.ProfilePicture.StorageID == "") {
		return errors.New("profile picture requires both url and storage id")
	}
	return nil
}
