package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/internal/handler"
	"github.com/Asaphis/AsaphisCommerce/internal/hub"
	"github.com/Asaphis/AsaphisCommerce/internal/presence"
	"github.com/Asaphis/AsaphisCommerce/internal/service"
	"github.com/Asaphis/AsaphisCommerce/internal/store"
	"github.com/Asaphis/AsaphisCommerce/internal/stream"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat relay")

	// Message store: without a configured database the relay still
	// accepts connections and broadcasts, it just cannot persist.
	var messageStore store.MessageStore
	if cfg.Database.Configured() {
		gormStore, err := store.NewGormStore(cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open message store")
		}
		messageStore = gormStore
		logger.Info().Str("driver", cfg.Database.Driver).Msg("message store connected")
	} else {
		messageStore = store.NewNoopStore()
		logger.Warn().Msg("no database configured; messages will be relayed but not persisted")
	}
	defer messageStore.Close()

	// Presence registry (optional)
	var reg presence.Registry
	if cfg.Redis.Configured() {
		redisReg, err := presence.NewRedisRegistry(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		reg = redisReg
		logger.Info().Str("address", cfg.Redis.Address).Msg("presence registry connected")
	} else {
		reg = presence.NewNoopRegistry()
		logger.Info().Msg("no redis configured; room presence disabled")
	}
	defer reg.Close()

	// Event stream (optional)
	var events stream.EventStream
	if cfg.Kafka.Configured() {
		producer, err := stream.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		events = producer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event stream connected")
	} else {
		events = stream.NewNoopStream()
		logger.Info().Msg("no kafka configured; message event stream disabled")
	}

	// Hub and relay service
	wsHub := hub.NewHub(cfg.WebSocket)
	relaySvc := service.NewRelayService(wsHub, messageStore, reg, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := relaySvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start relay service")
	}
	defer relaySvc.Stop()

	// HTTP server: WebSocket endpoint plus operational side-channel
	mux := http.NewServeMux()
	handler.NewWSHandler(wsHub, relaySvc, cfg.WebSocket, cfg.CORS).RegisterRoutes(mux)
	handler.NewHTTPHandler(messageStore, cfg.CORS).RegisterRoutes(mux)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     log.HTTPMiddleware(logger)(mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat relay")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	wsHub.Shutdown()

	logger.Info().Msg("chat relay stopped")
}
