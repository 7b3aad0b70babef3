package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/compressor/common/cache"
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/metrics"
	"github.com/lyzr/compressor/common/redis"
	"github.com/lyzr/compressor/common/telemetry"
)

// artifactKeyPrefix namespaces artifact entries in a shared Redis
const artifactKeyPrefix = "compressor:artifact:"

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Artifact cache: Redis when configured, memory otherwise
	backend := components.Config.Artifacts.Backend
	if options.skipRedis {
		backend = "memory"
	}
	switch backend {
	case "redis":
		components.Logger.Info("connecting to redis", "addr", components.Config.RedisAddr())
		components.Redis, err = redis.Dial(ctx,
			components.Config.RedisAddr(),
			components.Config.Redis.Password,
			components.Config.Redis.DB,
			components.Logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		components.Cache = cache.NewRedisCache(components.Redis, artifactKeyPrefix)
	default:
		components.Cache = cache.NewMemoryCache(components.Config.Artifacts.SweepInterval, components.Logger)
	}
	components.addCleanup(func() error {
		components.Logger.Info("closing artifact cache", "backend", backend)
		return components.Cache.Close()
	})

	// 4. Metrics
	if components.Config.Telemetry.EnableMetrics {
		components.Metrics = metrics.NewProm("compressor")
	}

	// 5. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
		components.addCleanup(func() error {
			return components.Telemetry.Stop(context.Background())
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"artifact_backend", backend,
		"metrics", components.Metrics != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
// Useful for services that can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
