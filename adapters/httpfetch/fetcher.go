package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spaceventure/server/domain/repositories"
)

const (
	defaultFetchTimeout = 15 * time.Second
	// maxImageBytes caps how much of a remote body we are willing to read
	maxImageBytes = 10 << 20
)

// Fetcher retrieves remote images over HTTP
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// Ensure Fetcher implements the ImageFetcher interface
var _ repositories.ImageFetcher = (*Fetcher)(nil)

// NewFetcher creates an HTTP image fetcher
func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: defaultFetchTimeout},
		logger: logger,
	}
}

// Fetch performs a single GET against the URL and returns the full body.
// Non-2xx responses and empty bodies are errors; there is no retry.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image fetch returned an empty body")
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	f.logger.Debug("Fetched remote image",
		zap.String("url", url),
		zap.Int("size_bytes", len(data)))

	return data, nil
}
