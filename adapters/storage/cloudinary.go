package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spaceventure/server/domain/repositories"
)

const (
	defaultAPIBaseURL    = "https://api.cloudinary.com/v1_1"
	defaultUploadTimeout = 30 * time.Second
)

// CloudinaryConfig holds configuration for the Cloudinary storage adapter.
// Required fields:
// - CloudName: the Cloudinary cloud to upload into
// - APIKey: the Cloudinary API key
// - APISecret: the Cloudinary API secret used to sign uploads
// Optional fields with defaults:
// - APIBaseURL: the base URL for the upload API (default: "https://api.cloudinary.com/v1_1")
// - Timeout: per-upload HTTP timeout (default: 30s)
type CloudinaryConfig struct {
	CloudName  string
	APIKey     string
	APISecret  string
	APIBaseURL string
	Timeout    time.Duration
}

// NewCloudinaryConfigFromEnv builds a config from CLOUDINARY_* environment variables
func NewCloudinaryConfigFromEnv() CloudinaryConfig {
	return CloudinaryConfig{
		CloudName:  os.Getenv("CLOUDINARY_CLOUD"),
		APIKey:     os.Getenv("CLOUDINARY_API"),
		APISecret:  os.Getenv("CLOUDINARY_SECRET"),
		APIBaseURL: os.Getenv("CLOUDINARY_BASE_URL"),
	}
}

// ValidateCloudinaryConfig validates the CloudinaryConfig
func ValidateCloudinaryConfig(config CloudinaryConfig) error {
	if config.CloudName == "" {
		return fmt.Errorf("cloudinary cloud name is required")
	}
	if config.APIKey == "" {
		return fmt.Errorf("cloudinary API key is required")
	}
	if config.APISecret == "" {
		return fmt.Errorf("cloudinary API secret is required")
	}
	return nil
}

// CloudinaryStorage implements ObjectStorage against the Cloudinary upload API
type CloudinaryStorage struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	apiBaseURL string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure CloudinaryStorage implements the ObjectStorage interface
var _ repositories.ObjectStorage = (*CloudinaryStorage)(nil)

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// NewCloudinaryStorage creates a new Cloudinary storage adapter
func NewCloudinaryStorage(config CloudinaryConfig, logger *zap.Logger) (*CloudinaryStorage, error) {
	if err := ValidateCloudinaryConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultUploadTimeout
	}

	return &CloudinaryStorage{
		cloudName:  config.CloudName,
		apiKey:     config.APIKey,
		apiSecret:  config.APISecret,
		apiBaseURL: apiBaseURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Upload sends the buffer to Cloudinary as a signed multipart upload into the
// given folder and returns the durable reference Cloudinary assigns.
func (s *CloudinaryStorage) Upload(ctx context.Context, data []byte, folder string) (*repositories.StoredObject, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("upload buffer is empty")
	}

	publicID := uuid.NewString()
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := s.sign(folder, publicID, timestamp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	fields := map[string]string{
		"api_key":   s.apiKey,
		"folder":    folder,
		"public_id": publicID,
		"timestamp": timestamp,
		"signature": signature,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/%s/image/upload", s.apiBaseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("Cloudinary rejected upload",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody))
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, fmt.Errorf("upload response missing url or public id")
	}

	s.logger.Info("Uploaded object to Cloudinary",
		zap.String("public_id", result.PublicID),
		zap.String("folder", folder),
		zap.Int("size_bytes", len(data)))

	return &repositories.StoredObject{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
	}, nil
}

// sign computes the Cloudinary request signature: the SHA-1 of the sorted
// upload parameters concatenated with the API secret.
func (s *CloudinaryStorage) sign(folder, publicID, timestamp string) string {
	payload := fmt.Sprintf("folder=%s&public_id=%s&timestamp=%s%s", folder, publicID, timestamp, s.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
