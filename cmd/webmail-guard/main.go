package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aman/webmail-guard/internal/bridge"
	"github.com/aman/webmail-guard/internal/core"
	"github.com/aman/webmail-guard/internal/di"
	"github.com/aman/webmail-guard/internal/monitor"
	"github.com/aman/webmail-guard/internal/page"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	mon *monitor.Monitor,
	bridgeServer *bridge.Server,
	source page.Source,
	analyzerClient core.Analyzer,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the bridge so the control surface can reach us
	if err := bridgeServer.Start(); err != nil {
		logger.Fatal("Failed to start bridge", zap.Error(err))
		return err
	}

	// Watch the host page
	monitorDone := make(chan error, 1)
	go func() {
		monitorDone <- mon.Run(ctx)
	}()

	logger.Info("Webmail guard running")

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Shutting down...")
	case err := <-monitorDone:
		if err != nil && err != context.Canceled {
			logger.Error("Monitor stopped", zap.Error(err))
		}
	}

	cancel()

	if err := bridgeServer.Stop(); err != nil {
		logger.Error("Failed to stop bridge", zap.Error(err))
	}
	if err := source.Close(); err != nil {
		logger.Error("Failed to close page source", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := analyzerClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
