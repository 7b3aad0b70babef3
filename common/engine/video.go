package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/models"
)

// VideoStrategy estimates an average bitrate from the target and duration,
// then corrects it proportionally against measured output. Each pass is a
// full transcode, so the pass budget is small.
type VideoStrategy struct {
	codec VideoCodec
	cfg   config.CompressionConfig
}

// NewVideoStrategy creates the video strategy
func NewVideoStrategy(codec VideoCodec, cfg config.CompressionConfig) *VideoStrategy {
	return &VideoStrategy{codec: codec, cfg: cfg}
}

func (s *VideoStrategy) Compress(ctx context.Context, job *Job) (*models.CompressionResult, error) {
	if !toolAvailable(s.codec) {
		return nil, EncodingFailureError("FFmpeg is not installed on the server", nil)
	}

	req := job.Request
	target := req.TargetBytes()
	limit := int64(float64(target) * (1 + s.cfg.VideoTolerance))

	input, err := job.Workspace.WriteFile("input"+req.Extension, req.Data)
	if err != nil {
		return nil, EncodingFailureError("could not stage video", err)
	}

	info, err := s.codec.Probe(ctx, input)
	if err != nil {
		return nil, encoderFailure(ctx, "video probe", err)
	}
	if info.Duration <= 0 {
		return nil, EncodingFailureError("could not read video information", fmt.Errorf("invalid duration %v", info.Duration))
	}
	job.Log.Info("video probed", "duration", info.Duration, "width", info.Width, "height", info.Height, "audio", info.HasAudio)

	scale := 1.0
	for step := 0; step <= s.cfg.MaxDownscales; step++ {
		opts := encoder.VideoOptions{
			AudioKbps: s.cfg.VideoAudioKbps,
			TwoPass:   s.cfg.VideoTwoPass,
			HasAudio:  info.HasAudio,
		}
		if step > 0 {
			if info.Width == 0 || info.Height == 0 {
				break
			}
			scale *= s.cfg.DownscaleFactor
			opts.Width, opts.Height = encoder.EvenDimensions(info.Width, info.Height, scale)
			job.Log.Info("bitrate floor reached, downscaling", "width", opts.Width, "height", opts.Height)
		}

		bitrate := s.InitialBitrate(req.TargetKB, info.Duration, info.HasAudio)
		for pass := 0; pass <= s.cfg.VideoCorrectivePasses; pass++ {
			opts.BitrateKbps = bitrate
			output := job.Workspace.Path(fmt.Sprintf("out_%d_%d%s", step, pass, req.Extension))

			if err := s.codec.Encode(ctx, input, output, opts); err != nil {
				return nil, encoderFailure(ctx, "video encode", err)
			}
			stat, err := os.Stat(output)
			if err != nil {
				return nil, EncodingFailureError("encoder produced no output", err)
			}

			size := stat.Size()
			fits := size <= limit
			job.record(models.CompressionAttempt{BitrateKbps: bitrate, Scale: scale, Size: size, Satisfied: fits})

			if fits {
				data, err := os.ReadFile(output)
				if err != nil {
					return nil, EncodingFailureError("could not read encoder output", err)
				}
				return job.finish(data, fmt.Sprintf("%dkbps", bitrate), scale), nil
			}
			_ = os.Remove(output)

			if bitrate <= s.cfg.VideoMinKbps {
				break
			}
			bitrate = s.CorrectedBitrate(bitrate, target, size)
		}
	}

	return nil, TargetUnreachableError(
		"Could not compress video to %dKB, even at the minimum bitrate and %d downscale steps",
		req.TargetKB, s.cfg.MaxDownscales,
	)
}

// InitialBitrate is the video kbps that spreads targetKB over duration after
// reserving the audio budget, floored at the minimum viable rate.
func (s *VideoStrategy) InitialBitrate(targetKB int, duration float64, hasAudio bool) int {
	total := float64(targetKB) * 8 / duration
	if hasAudio {
		total -= float64(s.cfg.VideoAudioKbps)
	}
	return s.floor(int(total))
}

// CorrectedBitrate scales bitrate by target/actual, always moving downward
func (s *VideoStrategy) CorrectedBitrate(bitrate int, target, actual int64) int {
	next := int(float64(bitrate) * float64(target) / float64(actual))
	if next >= bitrate {
		next = bitrate - 1
	}
	return s.floor(next)
}

func (s *VideoStrategy) floor(kbps int) int {
	if kbps < s.cfg.VideoMinKbps {
		return s.cfg.VideoMinKbps
	}
	return kbps
}
