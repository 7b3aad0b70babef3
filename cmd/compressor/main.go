package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/lyzr/compressor/cmd/compressor/container"
	"github.com/lyzr/compressor/cmd/compressor/routes"
	"github.com/lyzr/compressor/common/bootstrap"
	"github.com/lyzr/compressor/common/encoder"
	"github.com/lyzr/compressor/common/middleware"
	"github.com/lyzr/compressor/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, artifact cache, metrics, telemetry)
	components, err := bootstrap.Setup(ctx, "compressor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap compressor: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components, encoder.NewExecRunner(components.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e, components)

	// Register all routes
	routes.Register(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, components *bootstrap.Components) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", components.Config.Service.MaxUploadMB+1)))
}

// startServer runs the Echo server until SIGINT/SIGTERM
func startServer(e *echo.Echo, components *bootstrap.Components) {
	cfg := components.Config
	srv := server.New(cfg.Service.Name, cfg.Service.Port, e, cfg.Compression.JobTimeout, components.Logger)

	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
