package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"devicetrail/internal/config"
	"devicetrail/internal/db"
	devicehandler "devicetrail/internal/device/handler"
	devicerepo "devicetrail/internal/device/repository"
	deviceservice "devicetrail/internal/device/service"
	directoryrepo "devicetrail/internal/directory/repository"
	historyhandler "devicetrail/internal/history/handler"
	historyrepo "devicetrail/internal/history/repository"
	historyservice "devicetrail/internal/history/service"
	"devicetrail/internal/janitor"
	"devicetrail/internal/scope"
	"devicetrail/internal/security"
	"devicetrail/internal/server"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer conn.Close()

	deviceRepo := devicerepo.NewPostgresRepository(conn)
	directoryRepo := directoryrepo.NewPostgresRepository(conn)
	histRepo := historyrepo.NewPostgresRepository(conn)

	deviceSvc := deviceservice.NewService(deviceRepo, cfg.DeviceLimit, logger)
	historySvc := historyservice.NewService(histRepo, directoryRepo, logger)
	scopes := scope.NewDirectoryProvider(directoryRepo)
	tokens := security.NewTokenReader([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)

	router := server.NewRouter(server.Deps{
		Device:  devicehandler.NewHandler(deviceSvc, logger),
		History: historyhandler.NewHandler(historySvc, scopes, logger),
		Tokens:  tokens,
		DB:      conn,
		Logger:  logger,
	})

	sweeper := janitor.New(deviceRepo, cfg.IPLogRetentionDuration(), cfg.JanitorIntervalDuration(), logger)
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down http server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("http server stopped")
}
