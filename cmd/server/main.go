package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkboard/board-renderer/internal/amqp"
	"github.com/inkboard/board-renderer/internal/board"
	"github.com/inkboard/board-renderer/internal/config"
	"github.com/inkboard/board-renderer/internal/handlers"
	"github.com/inkboard/board-renderer/internal/redis"
	"github.com/inkboard/board-renderer/internal/transit"
	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	boardFile, err := models.LoadBoardFile(cfg.Board.FilePath)
	if err != nil {
		logger.Fatal("Failed to load board file",
			zap.String("path", cfg.Board.FilePath),
			zap.Error(err))
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer, err := board.NewRenderer(logger)
	if err != nil {
		logger.Fatal("Failed to initialize renderer", zap.Error(err))
	}

	pool := board.NewWorkerPool(cfg.Board.Workers, renderer, logger)
	pool.Start()

	// Optional Redis cache for fetched stop data
	var stopCache transit.StopCache
	if cfg.Redis.Addr != "" {
		cache, err := redis.NewCache(&cfg.Redis, time.Duration(cfg.Transit.CacheTTL)*time.Second, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer cache.Close()
		stopCache = cache
	} else {
		logger.Info("Redis not configured, stop data cache disabled")
	}

	transitClient := transit.NewClient(&cfg.Transit, logger)
	source := transit.NewSource(transitClient, boardFile.Stops, stopCache, logger)

	eventHandler := handlers.NewEventHandler(pool, renderer, source, &boardFile.Layout, logger)

	// Create HTTP server for the board and management API
	mux := http.NewServeMux()
	boardHandler := handlers.NewBoardHandler(
		eventHandler,
		&boardFile.Layout,
		models.ParseRenderTarget(cfg.Board.DefaultTarget),
		logger,
	)
	boardHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	// Start AMQP consumer if configured
	if cfg.AMQP.URL != "" {
		amqpConn, err := amqp.NewConnection(cfg.AMQP, logger)
		if err != nil {
			logger.Fatal("Failed to connect to AMQP", zap.Error(err))
		}
		defer amqpConn.Close()

		consumer := amqp.NewConsumer(amqpConn, eventHandler, logger)
		go func() {
			if err := consumer.Start(ctx, cfg.AMQP.QueueName); err != nil && err != context.Canceled {
				logger.Error("AMQP consumer stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("AMQP not configured, queue consumer disabled")
	}

	logger.Info("Server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("board_file", cfg.Board.FilePath),
		zap.String("default_target", cfg.Board.DefaultTarget),
		zap.Int("board_width", boardFile.Layout.Width),
		zap.Int("board_height", boardFile.Layout.Height))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Stop the render worker pool
	pool.Stop()

	// Cancel the main context to stop the consumer
	cancel()

	logger.Info("Server shutdown complete")
}
