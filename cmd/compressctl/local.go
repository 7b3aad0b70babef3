package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/models"
	"github.com/lyzr/compressor/common/validation"
)

func init() {
	rootCmd.AddCommand(localCmd)
}

// localCmd runs the engine in-process
var localCmd = &cobra.Command{
	Use:   "local <file>",
	Short: "Compress a file locally without a server",
	Long: `Run the compression engine in this process. Images need nothing else;
videos need ffmpeg/ffprobe and PDFs need Ghostscript on PATH (or the
FFMPEG_PATH, FFPROBE_PATH and GHOSTSCRIPT_PATH environment variables).

The same environment variables as the server tune the search (JOB_TIMEOUT,
IMAGE_MIN_QUALITY, MAX_DOWNSCALES and so on).

Examples:
  # Shrink a scanned document to 1MB
  compressctl local --type pdf --target 1 --unit mb scan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runLocal,
}

// runLocal handles the local command
func runLocal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("compressctl")
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Service.LogLevel, cfg.Service.LogFormat)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	target, err := validation.ParseTarget(targetSize)
	if err != nil {
		// reported by Validate in its usual order
		target = math.NaN()
	}
	validated, err := validation.NewRequestValidator().Validate(validation.Upload{
		Category: fileType,
		Filename: filepath.Base(args[0]),
		Size:     int64(len(data)),
		Target:   target,
		Unit:     sizeFormat,
	})
	if err != nil {
		return errors.New(engine.SafeMessage(err))
	}

	encoders := engine.NewEncoders(cfg.Tools, encoder.NewExecRunner(log), log)
	coordinator := engine.NewFromConfig(cfg.Compression, encoders, nil, log)

	result, err := coordinator.Run(cmd.Context(), uuid.NewString(), &models.CompressionRequest{
		Category:     validated.Category,
		Extension:    validated.Extension,
		Data:         data,
		TargetKB:     validated.TargetKB,
		OriginalSize: int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("compression failed (%s): %s", engine.KindOf(err), engine.SafeMessage(err))
	}

	dest := outputPath
	if dest == "" {
		dest = filepath.Join(filepath.Dir(args[0]), models.DownloadName(validated.Category, validated.Extension))
	}
	if err := os.WriteFile(dest, result.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	printSummary(cmd.OutOrStdout(), CompressionInfo{
		OriginalSize:     result.OriginalSize,
		CompressedSize:   result.CompressedSize,
		ReductionPercent: result.ReductionPercent,
		Quality:          result.Quality,
	}, dest, result.CompressedSize)
	return nil
}
