// main is the entry point of the BZCC collector.
// It initializes the configuration, logger, database and enrichment
// collaborators, then starts the relay poller and the HTTP read API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/config"
	"github.com/bz2vsr/battlezone-combat-commander/internal/enrich"
	"github.com/bz2vsr/battlezone-combat-commander/internal/fake"
	"github.com/bz2vsr/battlezone-combat-commander/internal/logger"
	"github.com/bz2vsr/battlezone-combat-commander/internal/maintenance"
	"github.com/bz2vsr/battlezone-combat-commander/internal/poller"
	"github.com/bz2vsr/battlezone-combat-commander/internal/relay"
	"github.com/bz2vsr/battlezone-combat-commander/internal/server"
	"github.com/bz2vsr/battlezone-combat-commander/internal/storage"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting bzcollector service...")

	// Database
	store, err := storage.New(cfg.Storage.Path, cfg.Relay.Grace)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	// Enrichment is optional; an empty base URL and API key disables it
	var handoff poller.Handoff
	if cfg.Enrich.GetdataBase != "" || cfg.Enrich.SteamAPIKey != "" {
		handoff = enrich.New(store, enrich.Options{
			GetdataBase: cfg.Enrich.GetdataBase,
			SteamAPIKey: cfg.Enrich.SteamAPIKey,
			Timeout:     cfg.Enrich.Timeout,
			SteamPerSec: cfg.RateLimit.SteamPerSec,
		})
	} else {
		log.Info().Msg("Enrichment disabled, serving placeholder metadata")
	}

	// Ingestion loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := relay.NewClient(cfg.Relay.URL, cfg.Relay.Timeout)
	p := poller.New(fetcher, store, handoff, cfg.Relay.Interval)
	go p.Run(ctx)

	// Init server
	httpServer := server.New(store, cfg).Serve(cfg.Server.Address)

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the poller first so no tick races the closing database
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
