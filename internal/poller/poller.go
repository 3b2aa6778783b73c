// Package poller drives the ingestion loop: fetch the relay payload,
// normalize it, reconcile it into the store and hand the tick's views to the
// enrichment collaborators. One tick at a time, failures cost only the tick.
package poller

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
	"github.com/bz2vsr/battlezone-combat-commander/internal/normalize"
	"github.com/bz2vsr/battlezone-combat-commander/internal/relay"
)

// Fetcher retrieves one raw relay payload.
type Fetcher interface {
	Fetch(ctx context.Context) (*relay.Payload, []byte, error)
}

// Store reconciles one tick's normalized views.
type Store interface {
	Reconcile(views []models.SessionView) (models.ReconcileCounts, error)
}

// Handoff receives the tick's views after the reconciliation committed.
type Handoff interface {
	Process(ctx context.Context, views []models.SessionView)
}

// Poller owns the fetch→normalize→reconcile loop. It is the single writer of
// the store; readers query concurrently through the repository.
type Poller struct {
	fetcher  Fetcher
	store    Store
	enricher Handoff
	interval time.Duration

	// lastHash is the xxhash of the previous tick's raw payload. An
	// unchanged payload still reconciles (last_seen_at must advance) but
	// skips the enrichment handoff, which cannot have new work.
	lastHash uint64
}

// New creates a poller. enricher may be nil when enrichment is disabled.
func New(fetcher Fetcher, store Store, enricher Handoff, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		enricher: enricher,
		interval: interval,
	}
}

// Run executes ticks at the configured interval until the context is
// cancelled. The first tick fires immediately. No tick error terminates the
// loop.
func (p *Poller) Run(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("Poller started")

	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one fetch→normalize→reconcile→enrich cycle. Fetch and storage
// errors abort the tick only; enrichment runs after the commit and its
// failures are isolated inside the enricher itself.
func (p *Poller) Tick(ctx context.Context) {
	start := time.Now()

	payload, body, err := p.fetcher.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Tick failed: fetch")
		return
	}

	hash := xxhash.Sum64(body)
	unchanged := hash != 0 && hash == p.lastHash

	views := normalize.Sessions(payload)

	counts, err := p.store.Reconcile(views)
	if err != nil {
		log.Error().Err(err).Msg("Tick failed: reconcile rolled back")
		return
	}
	p.lastHash = hash

	log.Debug().
		Int("sessions", len(views)).
		Int("created", counts.Created).
		Int("updated", counts.Updated).
		Int("ended", counts.Ended).
		Bool("unchanged", unchanged).
		Dur("took", time.Since(start)).
		Msg("Tick reconciled")

	if p.enricher != nil && !unchanged {
		p.enricher.Process(ctx, views)
	}
}
