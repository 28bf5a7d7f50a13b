package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spaceventure/server/domain/entities"
	"github.com/spaceventure/server/domain/repositories"
)

// ProfilePictureFolder is the object-storage namespace for account pictures
const ProfilePictureFolder = "space-venture/users/profile_picture"

// ImageIngestor resolves a profile picture into a durable storage reference.
// The buffer either comes from the inbound upload or is fetched from a remote
// URL; both paths end in the same upload step.
type ImageIngestor struct {
	storage repositories.ObjectStorage
	fetcher repositories.ImageFetcher
	logger  *zap.Logger
}

// NewImageIngestor creates an image ingestor
func NewImageIngestor(storage repositories.ObjectStorage, fetcher repositories.ImageFetcher, logger *zap.Logger) *ImageIngestor {
	return &ImageIngestor{
		storage: storage,
		fetcher: fetcher,
		logger:  logger,
	}
}

// FromURL fetches a remote image and forwards it to object storage.
// A failed or non-retrievable GET surfaces as ErrUpstreamFetch.
func (g *ImageIngestor) FromURL(ctx context.Context, imageURL string) (*entities.ProfilePicture, error) {
	data, err := g.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		g.logger.Error("Failed to fetch remote profile picture",
			zap.String("url", imageURL),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	return g.upload(ctx, data)
}

// FromBuffer forwards an already-received upload buffer to object storage
func (g *ImageIngestor) FromBuffer(ctx context.Context, data []byte) (*entities.ProfilePicture, error) {
	return g.upload(ctx, data)
}

func (g *ImageIngestor) upload(ctx context.Context, data []byte) (*entities.ProfilePicture, error) {
	obj, err := g.storage.Upload(ctx, data, ProfilePictureFolder)
	if err != nil {
		g.logger.Error("Object storage upload failed",
			zap.Int("size_bytes", len(data)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUpload, err)
	}
	return &entities.ProfilePicture{
		URL:       obj.URL,
		StorageID: obj.PublicID,
	}, nil
}
