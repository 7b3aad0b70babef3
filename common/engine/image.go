package engine

import (
	"context"
	"strconv"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/models"
)

// ImageStrategy searches quality per resolution step. Encoding is in-process
// and cheap, so every step runs a full quality search.
type ImageStrategy struct {
	codec ImageCodec
	cfg   config.CompressionConfig
}

// NewImageStrategy creates the image strategy
func NewImageStrategy(codec ImageCodec, cfg config.CompressionConfig) *ImageStrategy {
	return &ImageStrategy{codec: codec, cfg: cfg}
}

func (s *ImageStrategy) Compress(ctx context.Context, job *Job) (*models.CompressionResult, error) {
	req := job.Request
	target := req.TargetBytes()

	src, err := s.codec.Open(req.Data, req.Extension)
	if err != nil {
		return nil, EncodingFailureError("could not decode image", err)
	}

	scale := 1.0
	for step := 0; step <= s.cfg.MaxDownscales; step++ {
		if step > 0 {
			scale *= s.cfg.DownscaleFactor
			job.Log.Info("minimum quality still too large, downscaling", "scale", scale)
		}

		encode := func(ctx context.Context, quality int) ([]byte, error) {
			return src.Encode(ctx, quality, scale)
		}
		record := func(quality int, size int64, fits bool) {
			job.record(models.CompressionAttempt{Quality: quality, Scale: scale, Size: size, Satisfied: fits})
		}

		best, ok, err := fitQuality(ctx, s.cfg.ImageMinQuality, s.cfg.ImageMaxQuality, s.cfg.SearchMaxIterations, target, encode, record)
		if err != nil {
			return nil, encoderFailure(ctx, "image encode", err)
		}
		if ok {
			job.Log.Info("image target met", "quality", best.quality, "scale", scale, "size", len(best.data))
			return job.finish(best.data, strconv.Itoa(best.quality), scale), nil
		}
	}

	return nil, TargetUnreachableError(
		"Could not compress image to %dKB, even at minimum quality and %d downscale steps",
		req.TargetKB, s.cfg.MaxDownscales,
	)
}
