package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/cmd/compressor/repository"
	"github.com/lyzr/compressor/common/cache"
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/metrics"
	"github.com/lyzr/compressor/common/models"
)

type failingCache struct {
	cache.Cache
	err error
}

func (f failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.err
}

func (f failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}

type countingArtifacts struct {
	mu       sync.Mutex
	stored   int
	redeemed int
}

func (c *countingArtifacts) IncArtifactStored(models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored++
}

func (c *countingArtifacts) IncArtifactRedeemed(models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redeemed++
}

func newArtifactService(t *testing.T, cfg config.ArtifactConfig) (*ArtifactService, *countingArtifacts) {
	t.Helper()
	c := cache.NewMemoryCache(time.Minute, logger.Discard())
	t.Cleanup(func() { _ = c.Close() })
	counter := &countingArtifacts{}
	return NewArtifactService(repository.NewArtifactRepository(c), cfg, counter, logger.Discard()), counter
}

func TestPutThenRedeem(t *testing.T) {
	svc, counter := newArtifactService(t, config.ArtifactConfig{Retention: 15 * time.Minute})
	ctx := context.Background()

	handle, err := svc.Put(ctx, models.CategoryVideo, ".mp4", []byte("video-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "compressed_video.mp4", handle.Filename)
	assert.Equal(t, int64(11), handle.Size)
	assert.Equal(t, 15*time.Minute, handle.ExpiresAt.Sub(handle.CreatedAt))

	artifact, err := svc.Redeem(ctx, handle.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), artifact.Data)
	assert.Equal(t, handle.Filename, artifact.Handle.Filename)

	// time-based retention allows a second download
	_, err = svc.Redeem(ctx, handle.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, counter.stored)
	assert.Equal(t, 2, counter.redeemed)
}

func TestHandlesAreUnique(t *testing.T) {
	svc, _ := newArtifactService(t, config.ArtifactConfig{Retention: time.Minute})

	a, err := svc.Put(context.Background(), models.CategoryImage, ".png", []byte("a"))
	require.NoError(t, err)
	b, err := svc.Put(context.Background(), models.CategoryImage, ".png", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	got, err := svc.Redeem(context.Background(), a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got.Data)
}

func TestRedeemEvictsWhenConfigured(t *testing.T) {
	svc, _ := newArtifactService(t, config.ArtifactConfig{Retention: time.Minute, EvictOnRedeem: true})
	ctx := context.Background()

	handle, err := svc.Put(ctx, models.CategoryPDF, ".pdf", []byte("%PDF"))
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, handle.ID.String())
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, handle.ID.String())
	assert.True(t, engine.IsKind(err, engine.KindNotFound))
}

func TestRedeemExpired(t *testing.T) {
	svc, _ := newArtifactService(t, config.ArtifactConfig{Retention: time.Minute})
	ctx := context.Background()

	handle, err := svc.Put(ctx, models.CategoryImage, ".jpg", []byte("x"))
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Redeem(ctx, handle.ID.String())
	assert.True(t, engine.IsKind(err, engine.KindNotFound))
}

func TestRedeemUnknownReferences(t *testing.T) {
	svc, _ := newArtifactService(t, config.ArtifactConfig{Retention: time.Minute})

	for _, ref := range []string{"", "not-a-uuid", "../../etc/passwd", uuid.NewString()} {
		_, err := svc.Redeem(context.Background(), ref)
		assert.True(t, engine.IsKind(err, engine.KindNotFound), ref)
		assert.Equal(t, "File not found or expired", engine.SafeMessage(err))
	}
}

func TestStorageFailures(t *testing.T) {
	boom := errors.New("connection refused")
	repo := repository.NewArtifactRepository(failingCache{err: boom})
	svc := NewArtifactService(repo, config.ArtifactConfig{Retention: time.Minute}, metrics.Noop{}, logger.Discard())

	_, err := svc.Put(context.Background(), models.CategoryImage, ".png", []byte("x"))
	assert.True(t, engine.IsKind(err, engine.KindStorage))
	assert.ErrorIs(t, err, boom)

	_, err = svc.Redeem(context.Background(), uuid.NewString())
	assert.True(t, engine.IsKind(err, engine.KindStorage))
	assert.NotContains(t, engine.SafeMessage(err), "connection refused")
}
