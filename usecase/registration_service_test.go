package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spaceventure/server/adapters"
	"github.com/spaceventure/server/domain/entities"
	"github.com/spaceventure/server/domain/repositories"
	"github.com/spaceventure/server/internal/auth"
)

type fakeStorage struct {
	mu      sync.Mutex
	err     error
	uploads int
	folder  string
	lastLen int
}

func (f *fakeStorage) Upload(ctx context.Context, data []byte, folder string) (*repositories.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.uploads++
	f.folder = folder
	f.lastLen = len(data)
	return &repositories.StoredObject{
		URL:      "https://cdn.example.com/profile.jpg",
		PublicID: "space-venture/users/profile_picture/abc123",
	}, nil
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newTestService(t *testing.T, storage *fakeStorage, fetcher *fakeFetcher) (*RegistrationService, *adapters.MemoryAccountRepository) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	accounts := adapters.NewMemoryAccountRepository()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	ingestor := NewImageIngestor(storage, fetcher, logger)
	return NewRegistrationService(accounts, ingestor, hasher, logger), accounts
}

func localRequest() RegistrationRequest {
	return RegistrationRequest{
		Name:            "Jane Doe",
		Email:           "jane.doe@example.com",
		Password:        "Abcd123!",
		Phone:           "9876543210",
		Address:         strings.Repeat("a", 30),
		Organization:    "Acme Labs",
		DateOfBirth:     time.Now().AddDate(-10, 0, 0).Format("2006-01-02"),
		AccountCategory: string(entities.CategoryEndUser),
		IsFederated:     false,
	}
}

func federatedRequest() RegistrationRequest {
	return RegistrationRequest{
		Name:            "Jane Doe",
		Email:           "jane.doe@example.com",
		AccountCategory: string(entities.CategoryEndUser),
		IsFederated:     true,
		PictureURL:      "https://provider.example.com/photo.jpg",
	}
}

func TestRegisterLocalWithUpload(t *testing.T) {
	storage := &fakeStorage{}
	service, accounts := newTestService(t, storage, &fakeFetcher{})

	req := localRequest()
	req.PictureData = bytes.Repeat([]byte{0xFF}, 2<<20) // 2 MiB upload

	account, err := service.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if account.PasswordHash == "" || account.PasswordHash == req.Password {
		t.Error("Expected hashed password on the account")
	}
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	if !hasher.Verify(account.PasswordHash, req.Password) {
		t.Error("Expected stored hash to verify against the original password")
	}
	if account.ProfilePicture == nil || account.ProfilePicture.URL == "" || account.ProfilePicture.StorageID == "" {
		t.Errorf("Expected fully populated profile picture, got %+v", account.ProfilePicture)
	}
	if storage.uploads != 1 {
		t.Errorf("Expected 1 upload, got %d", storage.uploads)
	}
	if storage.folder != ProfilePictureFolder {
		t.Errorf("Expected upload into %q, got %q", ProfilePictureFolder, storage.folder)
	}

	persisted, err := accounts.GetByEmail(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("Failed to look up account: %v", err)
	}
	if persisted == nil {
		t.Fatal("Expected account to be persisted")
	}
}

func TestRegisterLocalWithoutUpload(t *testing.T) {
	storage := &fakeStorage{}
	service, _ := newTestService(t, storage, &fakeFetcher{})

	account, err := service.Register(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if account.ProfilePicture != nil {
		t.Errorf("Expected no profile picture, got %+v", account.ProfilePicture)
	}
	if storage.uploads != 0 {
		t.Errorf("Expected no uploads, got %d", storage.uploads)
	}
}

func TestRegisterFederated(t *testing.T) {
	storage := &fakeStorage{}
	fetcher := &fakeFetcher{data: []byte("image-bytes")}
	service, _ := newTestService(t, storage, fetcher)

	account, err := service.Register(context.Background(), federatedRequest())
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if account.PasswordHash != "" {
		t.Error("Expected no password hash on a federated account")
	}
	if account.ProfilePicture == nil || account.ProfilePicture.StorageID == "" {
		t.Errorf("Expected profile picture from provider image, got %+v", account.ProfilePicture)
	}
	if storage.uploads != 1 {
		t.Errorf("Expected 1 upload, got %d", storage.uploads)
	}
}

func TestRegisterFederatedFetchFailure(t *testing.T) {
	storage := &fakeStorage{}
	fetcher := &fakeFetcher{err: errors.New("fetch failed with status 404")}
	service, accounts := newTestService(t, storage, fetcher)

	_, err := service.Register(context.Background(), federatedRequest())
	if !errors.Is(err, ErrUpstreamFetch) {
		t.Fatalf("Expected ErrUpstreamFetch, got %v", err)
	}
	if storage.uploads != 0 {
		t.Errorf("Expected no uploads after fetch failure, got %d", storage.uploads)
	}

	persisted, _ := accounts.GetByEmail(context.Background(), "jane.doe@example.com")
	if persisted != nil {
		t.Error("Expected no account to be persisted after fetch failure")
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	storage := &fakeStorage{err: errors.New("storage unavailable")}
	service, accounts := newTestService(t, storage, &fakeFetcher{})

	req := localRequest()
	req.PictureData = []byte("image-bytes")

	_, err := service.Register(context.Background(), req)
	if !errors.Is(err, ErrStorageUpload) {
		t.Fatalf("Expected ErrStorageUpload, got %v", err)
	}

	persisted, _ := accounts.GetByEmail(context.Background(), "jane.doe@example.com")
	if persisted != nil {
		t.Error("Expected no account to be persisted after upload failure")
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	storage := &fakeStorage{}
	service, accounts := newTestService(t, storage, &fakeFetcher{})

	req := localRequest()
	req.Password = "abc"
	req.PictureData = []byte("image-bytes")

	_, err := service.Register(context.Background(), req)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	for _, v := range validationErr.Violations {
		if v.Field != "password" {
			t.Errorf("Expected only password violations, got field %q", v.Field)
		}
	}
	if storage.uploads != 0 {
		t.Errorf("Expected no uploads before validation passes, got %d", storage.uploads)
	}

	persisted, _ := accounts.GetByEmail(context.Background(), "jane.doe@example.com")
	if persisted != nil {
		t.Error("Expected no account to be persisted after validation failure")
	}
}

func TestRegisterMissingEmail(t *testing.T) {
	service, _ := newTestService(t, &fakeStorage{}, &fakeFetcher{})

	req := localRequest()
	req.Email = ""

	_, err := service.Register(context.Background(), req)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for missing email, got %v", err)
	}

	found := false
	for _, v := range validationErr.Violations {
		if v.Field == "email" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a violation naming email, got %+v", validationErr.Violations)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newTestService(t, &fakeStorage{}, &fakeFetcher{})

	if _, err := service.Register(context.Background(), localRequest()); err != nil {
		t.Fatalf("Failed to register first account: %v", err)
	}

	_, err := service.Register(context.Background(), localRequest())
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("Expected ErrDuplicateAccount, got %v", err)
	}
}

func TestRegisterDuplicateEmailDifferentCase(t *testing.T) {
	service, _ := newTestService(t, &fakeStorage{}, &fakeFetcher{})

	if _, err := service.Register(context.Background(), localRequest()); err != nil {
		t.Fatalf("Failed to register first account: %v", err)
	}

	req := localRequest()
	req.Email = "Jane.Doe@Example.COM"
	_, err := service.Register(context.Background(), req)
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("Expected ErrDuplicateAccount for case-variant email, got %v", err)
	}
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	service, accounts := newTestService(t, &fakeStorage{}, &fakeFetcher{})

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Register(context.Background(), localRequest())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateAccount):
			duplicates++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly 1 success, got %d", successes)
	}
	if duplicates != attempts-1 {
		t.Errorf("Expected %d duplicates, got %d", attempts-1, duplicates)
	}

	persisted, _ := accounts.GetByEmail(context.Background(), "jane.doe@example.com")
	if persisted == nil {
		t.Error("Expected exactly one persisted account")
	}
}

func TestRegisterFederatedWithoutPictureURL(t *testing.T) {
	storage := &fakeStorage{}
	service, _ := newTestService(t, storage, &fakeFetcher{})

	req := federatedRequest()
	req.PictureURL = ""
	account, err := service.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if account.ProfilePicture != nil {
		t.Errorf("Expected no profile picture, got %+v", account.ProfilePicture)
	}
	if storage.uploads != 0 {
		t.Errorf("Expected no uploads, got %d", storage.uploads)
	}
}
