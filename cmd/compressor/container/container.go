package container

import (
	"context"
	"time"

	"github.com/lyzr/compressor/cmd/compressor/repository"
	"github.com/lyzr/compressor/cmd/compressor/service"
	"github.com/lyzr/compressor/common/bootstrap"
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/metrics"
	"github.com/lyzr/compressor/common/ratelimit"
	"github.com/lyzr/compressor/common/validation"
)

const toolProbeTimeout = 5 * time.Second

// ToolStatus reports whether an external encoder binary is usable
type ToolStatus struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Engine
	Encoders    *engine.Encoders
	Coordinator *engine.Coordinator
	Validator   *validation.RequestValidator

	// Repositories
	ArtifactRepo *repository.ArtifactRepository

	// Services
	ArtifactService    *service.ArtifactService
	CompressionService *service.CompressionService

	// RateLimiter is nil unless rate limiting is enabled and redis is the backend
	RateLimiter *ratelimit.RateLimiter

	// Tools is captured once at startup
	Tools map[string]ToolStatus
	Host  metrics.Host
}

// NewContainer initializes all services and repositories once.
// runner executes the external encoders.
func NewContainer(components *bootstrap.Components, runner encoder.Runner) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	var recorder interface {
		engine.Recorder
		service.ArtifactCounter
	} = metrics.Noop{}
	if components.Metrics != nil {
		recorder = components.Metrics
	}

	// Engine (bottom-up: encoders, strategies, coordinator)
	encoders := engine.NewEncoders(cfg.Tools, runner, log)
	coordinator := engine.NewFromConfig(cfg.Compression, encoders, recorder, log)
	validator := validation.NewRequestValidator()

	// Repositories
	artifactRepo := repository.NewArtifactRepository(components.Cache)

	// Services
	artifactService := service.NewArtifactService(artifactRepo, cfg.Artifacts, recorder, log)
	compressionService := service.NewCompressionService(validator, coordinator, artifactService, log)

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		if components.Redis != nil {
			limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
		} else {
			log.Warn("rate limiting requires the redis artifact backend, disabled")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolProbeTimeout)
	defer cancel()
	tools := ProbeTools(ctx, runner, cfg.Tools)
	for name, status := range tools {
		if status.Available {
			log.Info("encoder tool found", "tool", name, "version", status.Version)
		} else {
			log.Warn("encoder tool missing", "tool", name, "path", status.Path)
		}
	}

	return &Container{
		Components:         components,
		Encoders:           encoders,
		Coordinator:        coordinator,
		Validator:          validator,
		ArtifactRepo:       artifactRepo,
		ArtifactService:    artifactService,
		CompressionService: compressionService,
		RateLimiter:        limiter,
		Tools:              tools,
		Host:               metrics.CaptureHost(),
	}, nil
}

// ProbeTools checks ffmpeg, ffprobe and Ghostscript and reads their versions
func ProbeTools(ctx context.Context, runner encoder.Runner, tools config.ToolsConfig) map[string]ToolStatus {
	probe := func(path string, versionArgs ...string) ToolStatus {
		status := ToolStatus{Path: path, Available: encoder.Available(path)}
		if !status.Available {
			return status
		}
		if version, err := encoder.ToolVersion(ctx, runner, path, versionArgs...); err == nil {
			status.Version = version
		}
		return status
	}

	return map[string]ToolStatus{
		"ffmpeg":      probe(tools.FFmpegPath, "-version"),
		"ffprobe":     probe(tools.FFprobePath, "-version"),
		"ghostscript": probe(tools.GhostscriptPath, "--version"),
	}
}
