// Package startup prepares and runs the application.
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xolodev/xolo-go/internal/application/container"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/presentation/http/server"
	"github.com/xolodev/xolo-go/internal/presentation/proxy"
	"github.com/xolodev/xolo-go/pkg/config"
)

// Initialize wires the container, starts the proxy and the dashboard server,
// and blocks until a shutdown signal arrives.
func Initialize() error {
	setupGin()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	logger, err := logging.NewChanneledLogger(loggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logger.Startup().Info("Initializing...")

	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	go appContainer.Broadcaster.Run(ctx)

	proxyServer := proxy.New(config.ProxyPort, appContainer.Engine, logger)
	dashboardServer := server.New(config.DashboardPort, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := proxyServer.Start(); err != nil {
			logger.System().Error("Proxy failed", "error", err.Error())
			gracefulShutdown <- syscall.SIGTERM
		}
	}()
	go func() {
		if err := dashboardServer.Start(); err != nil {
			logger.System().Error("Dashboard server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Startup complete",
		"proxyPort", config.ProxyPort,
		"dashboardPort", config.DashboardPort,
		"duration", time.Since(start))

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := proxyServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during proxy shutdown", "error", err.Error())
	}
	if err := dashboardServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during dashboard shutdown", "error", err.Error())
	}

	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing container", "error", err.Error())
	}

	logger.Shutdown().Info("Shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

func loggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory
	if level, err := logging.ParseLevel(config.LogDefaultLevel); err == nil {
		cfg.DefaultLevel = level
	}
	return cfg
}

func setupGin() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
