package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoport/internal/alerting"
	"ecoport/internal/cache"
	"ecoport/internal/config"
	"ecoport/internal/dashboard"
	"ecoport/internal/handlers"
	"ecoport/internal/logger"
	"ecoport/internal/publish"
	"ecoport/internal/telemetry"
	"ecoport/internal/websocket"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")
	log.Info().Str("config", cfg.ConfigPath).Msg("starting port telemetry alert service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	thresholds, err := alerting.NewThresholdConfig(cfg.Thresholds)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid thresholds")
	}

	source := telemetry.NewSimulator(telemetry.SimulatorConfig{
		Retention: cfg.HistoryRetention,
		Seed:      cfg.Seed,
	})

	engine := alerting.NewEngine(alerting.Config{
		TrendWindow:  cfg.TrendWindow,
		HistoryLimit: cfg.AlertHistoryLimit,
	})
	log.Info().
		Int("rules", len(engine.Rules())).
		Int("trend_window", cfg.TrendWindow).
		Int("alert_history_limit", cfg.AlertHistoryLimit).
		Msg("alert engine initialized")

	var sinks []dashboard.Sink
	var archive handlers.AlertArchive

	// Инициализация Redis
	if cfg.Redis.Enabled {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		redisArchive, err := cache.NewRedisArchive(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to Redis")
		}
		defer redisArchive.Close()
		sinks = append(sinks, redisArchive)
		archive = redisArchive
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	}

	// Инициализация Kafka
	if cfg.Kafka.Enabled {
		publisher, err := publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Kafka publisher")
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher ready")
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	svc := dashboard.NewService(dashboard.Config{
		Engine:      engine,
		Source:      source,
		Thresholds:  thresholds,
		Sinks:       sinks,
		Broadcaster: hub,
		Retention:   cfg.HistoryRetention,
	})

	// Первый цикл, чтобы панель не была пустой
	if _, err := svc.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed")
	}

	if cfg.RefreshInterval > 0 {
		go svc.RunTicker(ctx, cfg.RefreshInterval)
		log.Info().Dur("interval", cfg.RefreshInterval).Msg("automatic refresh enabled")
	}

	handler := handlers.NewHandler(svc, archive, hub)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped gracefully")
}
