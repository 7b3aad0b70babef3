package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/models"
)

// linearSize grows by 1000 bytes per quality unit at full resolution
func linearSize(quality int, scale float64) int {
	return int(float64(quality*1000) * scale * scale)
}

func imageRequest(targetKB int) *models.CompressionRequest {
	return &models.CompressionRequest{
		Category:     models.CategoryImage,
		Extension:    ".jpg",
		Data:         make([]byte, 10),
		TargetKB:     targetKB,
		OriginalSize: 1 << 20,
	}
}

func TestImageStrategyFindsLargestFittingQuality(t *testing.T) {
	codec := &fakeImageCodec{size: linearSize}
	s := NewImageStrategy(codec, testConfig(t))
	job := newTestJob(t, imageRequest(50))

	res, err := s.Compress(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, "51", res.Quality)
	assert.Equal(t, 1.0, res.Scale)
	assert.LessOrEqual(t, res.CompressedSize, int64(50*1024))
	assert.Equal(t, int64(51000), res.CompressedSize)
	assert.LessOrEqual(t, res.Attempts, 9)
	assert.Equal(t, res.Attempts, codec.Calls())
}

func TestImageStrategyIsDeterministic(t *testing.T) {
	run := func() *models.CompressionResult {
		s := NewImageStrategy(&fakeImageCodec{size: linearSize}, testConfig(t))
		res, err := s.Compress(context.Background(), newTestJob(t, imageRequest(37)))
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()

	assert.Equal(t, first.Quality, second.Quality)
	assert.Equal(t, first.CompressedSize, second.CompressedSize)
	assert.Equal(t, first.Attempts, second.Attempts)
}

func TestImageStrategyDownscalesWhenMinimumQualityTooLarge(t *testing.T) {
	s := NewImageStrategy(&fakeImageCodec{size: linearSize}, testConfig(t))
	job := newTestJob(t, imageRequest(5))

	res, err := s.Compress(context.Background(), job)

	require.NoError(t, err)
	assert.InDelta(t, 0.5625, res.Scale, 1e-9)
	assert.Equal(t, "16", res.Quality)
	assert.LessOrEqual(t, res.CompressedSize, int64(5*1024))

	// one failed minimum-quality probe per rejected scale
	attempts := job.Attempts()
	assert.False(t, attempts[0].Satisfied)
	assert.Equal(t, 10, attempts[0].Quality)
	assert.False(t, attempts[1].Satisfied)
	assert.InDelta(t, 0.75, attempts[1].Scale, 1e-9)
}

func TestImageStrategyReportsUnreachable(t *testing.T) {
	codec := &fakeImageCodec{size: func(int, float64) int { return 1 << 20 }}
	s := NewImageStrategy(codec, testConfig(t))

	_, err := s.Compress(context.Background(), newTestJob(t, imageRequest(20)))

	assert.True(t, IsKind(err, KindTargetUnreachable))
	// minimum quality at full scale plus three downscales
	assert.Equal(t, 4, codec.Calls())
}

func TestImageStrategyStopsEarlyNearTarget(t *testing.T) {
	// every quality lands at 99.5% of target
	codec := &fakeImageCodec{size: func(int, float64) int { return 20 * 1024 * 995 / 1000 }}
	s := NewImageStrategy(codec, testConfig(t))

	res, err := s.Compress(context.Background(), newTestJob(t, imageRequest(20)))

	require.NoError(t, err)
	assert.Equal(t, "10", res.Quality)
	assert.Equal(t, 1, codec.Calls())
}

func TestImageStrategyDecodeFailure(t *testing.T) {
	s := NewImageStrategy(&fakeImageCodec{openErr: errors.New("bad header")}, testConfig(t))

	_, err := s.Compress(context.Background(), newTestJob(t, imageRequest(20)))

	assert.True(t, IsKind(err, KindEncodingFailure))
	assert.Equal(t, "could not decode image", SafeMessage(err))
}

func TestImageStrategyEncoderFailure(t *testing.T) {
	codec := &fakeImageCodec{
		size: linearSize,
		fail: func(call int) error {
			if call == 3 {
				return &encoder.ToolError{Tool: "encoder", Err: errors.New("corrupt")}
			}
			return nil
		},
	}
	s := NewImageStrategy(codec, testConfig(t))

	_, err := s.Compress(context.Background(), newTestJob(t, imageRequest(50)))

	assert.True(t, IsKind(err, KindEncodingFailure))
	var toolErr *encoder.ToolError
	assert.ErrorAs(t, err, &toolErr)
}
