// Package maintenance provides one-shot database cleanup tasks triggered by
// command-line flags.
package maintenance

import (
	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/config"
	"github.com/bz2vsr/battlezone-combat-commander/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding
// tasks. Returns true if a maintenance task was executed (indicating the
// program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	ran := false

	if cfg.Storage.PruneSnapshots > 0 {
		ran = true
		log.Info().Dur("older_than", cfg.Storage.PruneSnapshots).Msg("Pruning snapshots...")

		count, err := store.PruneSnapshots(cfg.Storage.PruneSnapshots)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune snapshots")
		} else {
			log.Info().Int64("deleted", count).Msg("Snapshot prune finished")
		}
	}

	if cfg.Storage.PruneEnded > 0 {
		ran = true
		log.Info().Dur("older_than", cfg.Storage.PruneEnded).Msg("Pruning ended sessions...")

		count, err := store.PruneEndedSessions(cfg.Storage.PruneEnded)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune ended sessions")
		} else {
			log.Info().Int64("deleted", count).Msg("Session prune finished")
		}
	}

	return ran
}
