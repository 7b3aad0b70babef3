package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service     ServiceConfig
	Compression CompressionConfig
	Tools       ToolsConfig
	Artifacts   ArtifactConfig
	Redis       RedisConfig
	Telemetry   TelemetryConfig
	RateLimit   RateLimitConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	MaxUploadMB int
}

// CompressionConfig holds the search and job settings shared by all strategies
type CompressionConfig struct {
	JobTimeout       time.Duration
	WorkDir          string
	TransientRetries int

	ImageMinQuality     int
	ImageMaxQuality     int
	SearchMaxIterations int
	MaxDownscales       int
	DownscaleFactor     float64

	VideoAudioKbps        int
	VideoMinKbps          int
	VideoTolerance        float64
	VideoCorrectivePasses int
	VideoTwoPass          bool

	PDFBaseDPI int
}

// ToolsConfig holds paths to external encoder binaries
type ToolsConfig struct {
	FFmpegPath      string
	FFprobePath     string
	GhostscriptPath string
}

// ArtifactConfig holds artifact retention settings
type ArtifactConfig struct {
	Backend       string // "memory" or "redis"
	Retention     time.Duration
	EvictOnRedeem bool
	SweepInterval time.Duration
}

// RedisConfig holds Redis connection settings for the shared artifact backend
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
}

// RateLimitConfig holds submit rate limiting. Enforced only when the
// artifact backend is redis, since counters must be shared across instances.
type RateLimitConfig struct {
	Enabled         bool
	GlobalPerMinute int64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 100),
		},
		Compression: CompressionConfig{
			JobTimeout:       getEnvDuration("JOB_TIMEOUT", 5*time.Minute),
			WorkDir:          getEnv("WORK_DIR", filepath.Join(os.TempDir(), "compressor")),
			TransientRetries: getEnvInt("TRANSIENT_RETRIES", 1),

			ImageMinQuality:     getEnvInt("IMAGE_MIN_QUALITY", 10),
			ImageMaxQuality:     getEnvInt("IMAGE_MAX_QUALITY", 95),
			SearchMaxIterations: getEnvInt("SEARCH_MAX_ITERATIONS", 8),
			MaxDownscales:       getEnvInt("MAX_DOWNSCALES", 3),
			DownscaleFactor:     getEnvFloat("DOWNSCALE_FACTOR", 0.75),

			VideoAudioKbps:        getEnvInt("VIDEO_AUDIO_KBPS", 128),
			VideoMinKbps:          getEnvInt("VIDEO_MIN_KBPS", 100),
			VideoTolerance:        getEnvFloat("VIDEO_TOLERANCE", 0.02),
			VideoCorrectivePasses: getEnvInt("VIDEO_CORRECTIVE_PASSES", 3),
			VideoTwoPass:          getEnvBool("VIDEO_TWO_PASS", true),

			PDFBaseDPI: getEnvInt("PDF_BASE_DPI", 300),
		},
		Tools: ToolsConfig{
			FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:     getEnv("FFPROBE_PATH", "ffprobe"),
			GhostscriptPath: getEnv("GHOSTSCRIPT_PATH", "gs"),
		},
		Artifacts: ArtifactConfig{
			Backend:       getEnv("ARTIFACT_BACKEND", "memory"),
			Retention:     getEnvDuration("ARTIFACT_RETENTION", 15*time.Minute),
			EvictOnRedeem: getEnvBool("ARTIFACT_EVICT_ON_REDEEM", false),
			SweepInterval: getEnvDuration("ARTIFACT_SWEEP_INTERVAL", 1*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", false),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		},
	}

	return cfg, cfg.Validate()
}

// Default returns the configuration Load would produce with an empty environment.
// Tests and the local CLI start from it.
func Default(serviceName string) *Config {
	cfg := &Config{}
	cfg.Service = ServiceConfig{Name: serviceName, Port: 8080, Environment: "development", LogLevel: "info", LogFormat: "text", MaxUploadMB: 100}
	cfg.Compression = CompressionConfig{
		JobTimeout:            5 * time.Minute,
		WorkDir:               filepath.Join(os.TempDir(), "compressor"),
		TransientRetries:      1,
		ImageMinQuality:       10,
		ImageMaxQuality:       95,
		SearchMaxIterations:   8,
		MaxDownscales:         3,
		DownscaleFactor:       0.75,
		VideoAudioKbps:        128,
		VideoMinKbps:          100,
		VideoTolerance:        0.02,
		VideoCorrectivePasses: 3,
		VideoTwoPass:          true,
		PDFBaseDPI:            300,
	}
	cfg.Tools = ToolsConfig{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", GhostscriptPath: "gs"}
	cfg.Artifacts = ArtifactConfig{Backend: "memory", Retention: 15 * time.Minute, SweepInterval: time.Minute}
	cfg.Redis = RedisConfig{Host: "localhost", Port: 6379}
	cfg.Telemetry = TelemetryConfig{PprofPort: 6060, EnableMetrics: true}
	cfg.RateLimit = RateLimitConfig{GlobalPerMinute: 600}
	return cfg
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	comp := c.Compression
	if comp.JobTimeout <= 0 {
		return fmt.Errorf("job timeout must be positive")
	}
	if comp.ImageMinQuality < 1 || comp.ImageMaxQuality > 100 || comp.ImageMinQuality >= comp.ImageMaxQuality {
		return fmt.Errorf("invalid image quality range [%d, %d]", comp.ImageMinQuality, comp.ImageMaxQuality)
	}
	if comp.SearchMaxIterations < 1 {
		return fmt.Errorf("search_max_iterations must be >= 1")
	}
	if comp.MaxDownscales < 0 {
		return fmt.Errorf("max_downscales must be >= 0")
	}
	if comp.DownscaleFactor <= 0 || comp.DownscaleFactor >= 1 {
		return fmt.Errorf("downscale factor must be in (0, 1), got %v", comp.DownscaleFactor)
	}
	if comp.VideoMinKbps < 1 || comp.VideoAudioKbps < 0 {
		return fmt.Errorf("invalid video bitrate limits")
	}
	if comp.VideoTolerance < 0 || comp.VideoTolerance > 0.5 {
		return fmt.Errorf("video tolerance must be in [0, 0.5]")
	}
	if comp.TransientRetries < 0 {
		return fmt.Errorf("transient_retries must be >= 0")
	}

	switch c.Artifacts.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown artifact backend: %s", c.Artifacts.Backend)
	}
	if c.Artifacts.Retention <= 0 {
		return fmt.Errorf("artifact retention must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.GlobalPerMinute < 1 {
		return fmt.Errorf("global rate limit must be >= 1 when enabled")
	}

	return nil
}

// RedisAddr returns the host:port address of the artifact Redis
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
