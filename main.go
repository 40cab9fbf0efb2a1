package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lfroste/livepoll-be/internal/api"
	"github.com/lfroste/livepoll-be/internal/auth"
	"github.com/lfroste/livepoll-be/internal/config"
	"github.com/lfroste/livepoll-be/internal/database"
	"github.com/lfroste/livepoll-be/internal/logger"
	"github.com/lfroste/livepoll-be/internal/monitoring"
	"github.com/lfroste/livepoll-be/internal/services"
	"github.com/lfroste/livepoll-be/internal/session"
	"github.com/lfroste/livepoll-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up session registry and token manager
	registry := session.NewRegistry()
	tokens := auth.NewManager(cfg.JWTSecret)

	// Set up services
	userService := services.NewUserService(db)
	pollService := services.NewPollService(db, hub)
	voteService := services.NewVoteService(db, hub)
	statsService := services.NewStatsService(db, registry)

	// Set up and run the background stats broadcaster
	statBroadcaster, err := monitoring.NewStatBroadcaster(statsService, hub, cfg.StatsInterval)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.StatsInterval).Msg("Invalid stats broadcast interval")
	}
	go statBroadcaster.Run()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		Hub:            hub,
		Registry:       registry,
		Tokens:         tokens,
		UserService:    userService,
		PollService:    pollService,
		VoteService:    voteService,
		StatsService:   statsService,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statBroadcaster.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	hub.Shutdown()
	registry.Clear()

	log.Info().Msg("Server exiting")
}
