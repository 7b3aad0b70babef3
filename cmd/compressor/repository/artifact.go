package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lyzr/compressor/common/cache"
	"github.com/lyzr/compressor/common/models"
)

// ArtifactRepository stores artifact handles and their blobs in the artifact
// cache. Handle metadata and bytes live under separate keys with the same TTL.
type ArtifactRepository struct {
	cache cache.Cache
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(c cache.Cache) *ArtifactRepository {
	return &ArtifactRepository{cache: c}
}

func metaKey(id uuid.UUID) string {
	return "meta:" + id.String()
}

// BlobKey returns the store key of an artifact's bytes
func BlobKey(id uuid.UUID) string {
	return "blob:" + id.String()
}

// Create persists the blob first, then the handle, so a visible handle always
// has its bytes.
func (r *ArtifactRepository) Create(ctx context.Context, handle *models.ArtifactHandle, data []byte, ttl time.Duration) error {
	meta, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("failed to encode artifact handle: %w", err)
	}

	if err := r.cache.Set(ctx, handle.BlobKey, data, ttl); err != nil {
		return fmt.Errorf("failed to store artifact blob: %w", err)
	}
	if err := r.cache.Set(ctx, metaKey(handle.ID), meta, ttl); err != nil {
		_ = r.cache.Delete(ctx, handle.BlobKey)
		return fmt.Errorf("failed to store artifact handle: %w", err)
	}
	return nil
}

// GetHandle retrieves a handle by id. found is false for unknown or expired ids.
func (r *ArtifactRepository) GetHandle(ctx context.Context, id uuid.UUID) (*models.ArtifactHandle, bool, error) {
	raw, found, err := r.cache.Get(ctx, metaKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact handle: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var handle models.ArtifactHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		return nil, false, fmt.Errorf("failed to decode artifact handle: %w", err)
	}
	return &handle, true, nil
}

// GetBlob retrieves the bytes behind a handle
func (r *ArtifactRepository) GetBlob(ctx context.Context, handle *models.ArtifactHandle) ([]byte, bool, error) {
	data, found, err := r.cache.Get(ctx, handle.BlobKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact blob: %w", err)
	}
	return data, found, nil
}

// Delete removes both keys of an artifact
func (r *ArtifactRepository) Delete(ctx context.Context, handle *models.ArtifactHandle) error {
	if err := r.cache.Delete(ctx, metaKey(handle.ID)); err != nil {
		return fmt.Errorf("failed to delete artifact handle: %w", err)
	}
	if err := r.cache.Delete(ctx, handle.BlobKey); err != nil {
		return fmt.Errorf("failed to delete artifact blob: %w", err)
	}
	return nil
}
