package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"assetwatch/internal/analytics"
	"assetwatch/internal/config"
	"assetwatch/internal/database"
	"assetwatch/internal/metrics"
	"assetwatch/internal/web"
)

const version = "1.0.0"

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("AssetWatch v%s\n", version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config_file": *configFile,
		"port":        cfg.Server.Port,
		"database":    cfg.Database.Path,
	}).Info("Starting AssetWatch")

	// Initialize database
	store, err := database.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize metrics
	metricsCollector := metrics.NewCollector(store)

	// Initialize the alert/analytics service
	service := analytics.NewService(store, metricsCollector)

	// Initialize web server
	webServer := web.NewServer(cfg, store, service, metricsCollector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go webServer.Start(ctx)
	go updateMetricsRoutine(ctx, metricsCollector)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logrus.WithField("signal", sig).Info("Received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Web server shutdown failed")
	}
	logrus.Info("Shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

func updateMetricsRoutine(ctx context.Context, collector *metrics.Collector) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := collector.UpdateSystemMetrics(ctx); err != nil {
				logrus.WithError(err).Error("Failed to update system metrics")
			}
		}
	}
}
