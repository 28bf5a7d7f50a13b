package repositories

import (
	"context"
)

// StoredObject is the durable reference returned by object storage after an
// upload: a public URL plus the storage-side identifier of the object.
type StoredObject struct {
	URL      string
	PublicID string
}

// ObjectStorage defines the upload contract against the remote object store.
// folder namespaces the upload (e.g. account profile pictures vs other assets).
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, folder string) (*StoredObject, error)
}

// ImageFetcher retrieves a remote image as a binary buffer
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
