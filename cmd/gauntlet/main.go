package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
	"github.com/mcdev12/gauntlet/internal/gateway"
	"github.com/mcdev12/gauntlet/internal/results"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	store, cleanup, err := setupResultStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open result store")
	}
	defer cleanup()

	registry := game.NewRegistry()
	engine := game.Engine{Stages: cfg.Game.Stages, Cutoff: cfg.StageCutoff()}
	answers := game.NewAnswerKey(cfg.Answers)

	gwConfig := gateway.DefaultConfig()
	gwConfig.GracePeriod = cfg.GracePeriod()
	svc := gateway.NewService(gwConfig, registry, engine, answers, store, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := svc.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	server := setupServer(cfg, svc)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func setupResultStore(cfg *Config) (results.Store, func(), error) {
	switch cfg.Results.Backend {
	case "sqlite":
		store, err := results.OpenSQLiteStore(cfg.Results.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return results.NewFileStore(cfg.Results.Path), func() {}, nil
	}
}
