package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/models"
)

// PDFStrategy recompresses embedded raster images with one shared quality per
// pass. Text and vector content are never rasterized.
type PDFStrategy struct {
	codec PDFCodec
	cfg   config.CompressionConfig
}

// NewPDFStrategy creates the PDF strategy
func NewPDFStrategy(codec PDFCodec, cfg config.CompressionConfig) *PDFStrategy {
	return &PDFStrategy{codec: codec, cfg: cfg}
}

func (s *PDFStrategy) Compress(ctx context.Context, job *Job) (*models.CompressionResult, error) {
	if !toolAvailable(s.codec) {
		return nil, EncodingFailureError("Ghostscript is not installed on the server", nil)
	}

	req := job.Request
	target := req.TargetBytes()

	input, err := job.Workspace.WriteFile("input.pdf", req.Data)
	if err != nil {
		return nil, EncodingFailureError("could not stage document", err)
	}

	images, err := s.codec.CountImages(ctx, input)
	if err != nil {
		return nil, encoderFailure(ctx, "pdf inspection", err)
	}
	if images == 0 {
		return nil, TargetUnreachableError("PDF has no embedded images to recompress, so it cannot be reduced to %dKB", req.TargetKB)
	}
	job.Log.Info("pdf inspected", "images", images)

	scale := 1.0
	for step := 0; step <= s.cfg.MaxDownscales; step++ {
		opts := encoder.PDFOptions{}
		if step > 0 {
			scale *= s.cfg.DownscaleFactor
			opts.DPI = DownsampleDPI(s.cfg.PDFBaseDPI, scale)
			job.Log.Info("minimum quality still too large, downsampling images", "dpi", opts.DPI)
		}

		encode := func(ctx context.Context, quality int) ([]byte, error) {
			pass := opts
			pass.Quality = quality
			output := job.Workspace.Path(fmt.Sprintf("out_%d_q%d.pdf", step, quality))
			if err := s.codec.Compress(ctx, input, output, pass); err != nil {
				return nil, err
			}
			defer os.Remove(output)
			return os.ReadFile(output)
		}
		record := func(quality int, size int64, fits bool) {
			job.record(models.CompressionAttempt{Quality: quality, Scale: scale, Size: size, Satisfied: fits})
		}

		best, ok, err := fitQuality(ctx, s.cfg.ImageMinQuality, s.cfg.ImageMaxQuality, s.cfg.SearchMaxIterations, target, encode, record)
		if err != nil {
			return nil, encoderFailure(ctx, "pdf recompression", err)
		}
		if ok {
			job.Log.Info("pdf target met", "quality", best.quality, "dpi", opts.DPI, "size", len(best.data))
			return job.finish(best.data, strconv.Itoa(best.quality), scale), nil
		}
	}

	return nil, TargetUnreachableError(
		"Could not compress PDF to %dKB, even at minimum image quality and %d downsample steps",
		req.TargetKB, s.cfg.MaxDownscales,
	)
}

// DownsampleDPI is the image resolution ceiling for a downsample scale
func DownsampleDPI(base int, scale float64) int {
	dpi := int(math.Round(float64(base) * scale))
	if dpi < 1 {
		dpi = 1
	}
	return dpi
}

// toolAvailable checks codecs that depend on an external binary
func toolAvailable(codec any) bool {
	if a, ok := codec.(interface{ Available() bool }); ok {
		return a.Available()
	}
	return true
}
