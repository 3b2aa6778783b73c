// Package enrich implements the best-effort metadata collaborators: level
// and mod display data from the community getdata endpoint, and player
// profiles from the Steam Web API. Every lookup is allowed to fail; the
// store works fine on placeholder data alone.
package enrich

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

// Store is the slice of the repository the enricher writes to. Writes happen
// outside the reconcile transaction, after it has committed.
type Store interface {
	UpsertLevelMetadata(models.Level) error
	UpsertModMetadata(models.Mod) error
	UpsertPlayerProfile(models.PlayerProfile) error
}

// Options configures the enricher. Empty GetdataBase or SteamAPIKey disables
// the corresponding lookup entirely.
type Options struct {
	GetdataBase string
	SteamAPIKey string
	Timeout     time.Duration
	SteamPerSec float64

	// steamURL overrides the Steam API endpoint in tests
	steamURL string
}

// Enricher runs the post-commit lookups for one tick's worth of views.
type Enricher struct {
	store   Store
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates an enricher. The rate limiter throttles outbound Steam API
// calls so bursts of new players cannot trip the API's quota.
func New(store Store, opts Options) *Enricher {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.SteamPerSec <= 0 {
		opts.SteamPerSec = 1
	}

	return &Enricher{
		store:   store,
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.SteamPerSec), 1),
	}
}

// Process hands one tick's views to the collaborators. It never returns an
// error: enrichment failure must not affect the reconciliation that already
// committed.
func (e *Enricher) Process(ctx context.Context, views []models.SessionView) {
	if len(views) == 0 {
		return
	}

	levels, mods := e.enrichLevels(ctx, views)
	profiles := e.enrichProfiles(ctx, views)

	log.Debug().
		Int("levels", levels).
		Int("mods", mods).
		Int("profiles", profiles).
		Msg("Enrichment pass finished")
}
