package engine

import (
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/logger"
)

// Encoders groups the concrete encoders behind the three strategies
type Encoders struct {
	Image *encoder.ImageEncoder
	Video *encoder.VideoEncoder
	PDF   *encoder.PDFEncoder
}

// NewEncoders wires the subprocess encoders to runner using the configured tool paths
func NewEncoders(tools config.ToolsConfig, runner encoder.Runner, log *logger.Logger) *Encoders {
	return &Encoders{
		Image: encoder.NewImageEncoder(),
		Video: encoder.NewVideoEncoder(runner, tools.FFmpegPath, tools.FFprobePath),
		PDF:   encoder.NewPDFEncoder(runner, tools.GhostscriptPath, log),
	}
}

// NewFromConfig builds the dispatcher and coordinator over encs.
// recorder may be nil.
func NewFromConfig(cfg config.CompressionConfig, encs *Encoders, recorder Recorder, log *logger.Logger) *Coordinator {
	dispatcher := NewDispatcher(
		NewImageStrategy(encs.Image, cfg),
		NewVideoStrategy(encs.Video, cfg),
		NewPDFStrategy(encs.PDF, cfg),
	)
	return NewCoordinator(dispatcher, cfg, recorder, log)
}
