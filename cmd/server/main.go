package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"veryus/internal/config"
	"veryus/internal/db"
	"veryus/internal/handlers"
	"veryus/internal/logger"
	"veryus/internal/middleware"
	"veryus/internal/router"
	"veryus/internal/services"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

const (
	cacheSize = 1024
	timezone  = "Asia/Seoul"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config; fall back to defaults to report the failure.
		l := logger.New(config.LogConfig{})
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log)
	log.Info().Msg("Starting VERYUS server...")
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := services.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open object storage")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn().Err(err).Msg("Timezone data missing, using local time")
		loc = time.Local
	}

	cache, err := utils.NewCache(cacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cache")
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	counters := services.NewCounterService(conn, log)
	go counters.Run(ctx)
	log.Info().Msg("Comment counter reconciliation started")

	notifications := services.NewNotificationService(conn, hub, log)
	deps := &handlers.Deps{
		DB:            conn,
		Log:           log,
		Config:        cfg,
		Cache:         cache,
		Hub:           hub,
		Store:         store,
		Mail:          services.NewMailService(cfg.Mail, log),
		Tokens:        middleware.NewTokenIssuer(cfg.Realtime.Secret, cfg.Realtime.TokenTTL),
		Notifications: notifications,
		Dispatcher:    services.NewDispatcher(notifications, log),
		Counters:      counters,
		Grades:        services.NewGradeService(conn, notifications, log),
		Contests:      services.NewContestService(conn, log),
		Rooms:         services.NewRoomService(conn, loc, log),
		Location:      loc,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Stop the hub and the counter worker after in-flight requests finished.
	stop()
	closeStore(shutdownCtx, store, log)

	log.Info().Msg("Server exited gracefully")
}

func closeStore(ctx context.Context, store services.ObjectStore, log zerolog.Logger) {
	closer, ok := store.(interface{ Close(context.Context) error })
	if !ok {
		return
	}
	if err := closer.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close object storage")
	}
}
