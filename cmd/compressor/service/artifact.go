package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lyzr/compressor/cmd/compressor/repository"
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
)

// ArtifactCounter counts stored and redeemed artifacts
type ArtifactCounter interface {
	IncArtifactStored(category models.Category)
	IncArtifactRedeemed(category models.Category)
}

// ArtifactService hands finished results to callers through opaque handles
type ArtifactService struct {
	repo    *repository.ArtifactRepository
	cfg     config.ArtifactConfig
	counter ArtifactCounter
	log     *logger.Logger
	now     func() time.Time
}

// NewArtifactService creates a new artifact service
func NewArtifactService(repo *repository.ArtifactRepository, cfg config.ArtifactConfig, counter ArtifactCounter, log *logger.Logger) *ArtifactService {
	return &ArtifactService{
		repo:    repo,
		cfg:     cfg,
		counter: counter,
		log:     log,
		now:     time.Now,
	}
}

// Put stores data under a fresh handle valid for the retention window
func (s *ArtifactService) Put(ctx context.Context, category models.Category, ext string, data []byte) (*models.ArtifactHandle, error) {
	id := uuid.New()
	now := s.now().UTC()
	handle := &models.ArtifactHandle{
		ID:        id,
		BlobKey:   repository.BlobKey(id),
		Filename:  models.DownloadName(category, ext),
		Category:  category,
		Size:      int64(len(data)),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Retention),
	}

	if err := s.repo.Create(ctx, handle, data, s.cfg.Retention); err != nil {
		s.log.WithContext(ctx).Error("failed to store artifact", "artifact_id", id, "error", err)
		return nil, engine.StorageError("Could not save the compressed file", err)
	}
	s.counter.IncArtifactStored(category)

	s.log.WithContext(ctx).Info("stored artifact",
		"artifact_id", id,
		"category", category,
		"size", handle.Size,
		"expires_at", handle.ExpiresAt,
	)
	return handle, nil
}

// Redeem returns the artifact behind reference. Malformed, unknown and
// expired references are all NotFound. With EvictOnRedeem the artifact is
// removed after the first successful read.
func (s *ArtifactService) Redeem(ctx context.Context, reference string) (*models.Artifact, error) {
	id, err := uuid.Parse(reference)
	if err != nil {
		return nil, engine.NotFoundError("File not found or expired")
	}
	log := s.log.WithContext(ctx)

	handle, found, err := s.repo.GetHandle(ctx, id)
	if err != nil {
		log.Error("failed to read artifact", "artifact_id", id, "error", err)
		return nil, engine.StorageError("Could not read the compressed file", err)
	}
	if !found || handle.Expired(s.now()) {
		return nil, engine.NotFoundError("File not found or expired")
	}

	data, found, err := s.repo.GetBlob(ctx, handle)
	if err != nil {
		log.Error("failed to read artifact blob", "artifact_id", id, "error", err)
		return nil, engine.StorageError("Could not read the compressed file", err)
	}
	if !found {
		return nil, engine.NotFoundError("File not found or expired")
	}

	if s.cfg.EvictOnRedeem {
		if err := s.repo.Delete(ctx, handle); err != nil {
			// the bytes were read; a failed eviction only delays expiry
			log.Warn("failed to evict redeemed artifact", "artifact_id", id, "error", err)
		}
	}
	s.counter.IncArtifactRedeemed(handle.Category)

	log.Info("redeemed artifact", "artifact_id", id, "size", len(data))
	return &models.Artifact{Handle: *handle, Data: data}, nil
}
