// Package main runs the custody API server and the monthly interest job.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fraol163/Banking-Managment-System-sub001/cmd/httpserver"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/configpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}

	if err := dbpkg.Migrate(config.MigrationURL, config.DBSource); err != nil {
		logger.Fatal().Err(err).Msg("cannot migrate database")
	}

	var redisClient redis.UniversalClient
	if config.RedisAddress != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.RedisAddress})
		defer redisClient.Close()
	}

	server, err := httpserver.New(db, logger, config, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.RunBackground(logger.WithContext(ctx))

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("address", config.ServerAddress).Msg("CUSTODY API SERVER HAS STARTED")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("cannot start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("closing database")
	}

	logger.Info().Msg("server stopped")
}
