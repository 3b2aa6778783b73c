// Package fake provides utilities for generating random session data for
// testing and development purposes.
package fake

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
	"github.com/bz2vsr/battlezone-combat-commander/internal/storage"
)

// GenerateData populates the storage with a specified number of randomized
// session lifecycles spread over the last 24 hours. Each session is replayed
// as a series of one-minute ticks so history and usage summaries have data.
func GenerateData(store *storage.Repository, count int) {
	maps := []string{"mpvsred2", "mpvsgrab", "mpvscity", "mpvsmayhem", "stock13"}
	mods := []string{"0", "1325933293", "1987556756", "2508032021"}
	versions := []string{"2.0.184", "2.0.185", "2.0.188"}
	names := []string{"Recycler Rush", "Strat Night", "MPI Grab", "Vets Only", "Chill Lobby"}
	players := []string{"Scrapper", "Pilot", "Commander", "Gunner", "Wingman", "Scout", "Ace", "Rook"}

	starts := make([]time.Time, count)
	base := time.Now().UTC().Add(-24 * time.Hour)
	for i := range starts {
		starts[i] = base.Add(time.Duration(rand.Intn(23*60)) * time.Minute)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	for i := 0; i < count; i++ {
		view := models.SessionView{
			ID:      "Rebellion:" + randomHex(16),
			Source:  "Rebellion",
			Name:    fmt.Sprintf("%s #%d", names[rand.Intn(len(names))], rand.Intn(100)),
			State:   models.StatePreGame,
			MapFile: maps[rand.Intn(len(maps))],
			Mod:     mods[rand.Intn(len(mods))],
			Version: versions[rand.Intn(len(versions))],
		}
		view.Mods = []string{view.Mod}

		roster := 1 + rand.Intn(6)
		for slot := 1; slot <= roster; slot++ {
			p := models.PlayerView{
				Slot:    slot,
				RawID:   fmt.Sprintf("S7656119%08d", rand.Intn(100000000)),
				Name:    players[rand.Intn(len(players))],
				SteamID: fmt.Sprintf("7656119%08d", rand.Intn(100000000)),
			}
			team := 1
			if slot > 5 {
				team = 2
			}
			p.TeamID = &team
			view.Players = append(view.Players, p)
		}

		ticks := 5 + rand.Intn(35)
		for tick := 0; tick < ticks; tick++ {
			if tick == ticks/3 {
				view.State = models.StateInGame
				for j := range view.Players {
					k, d, s := rand.Intn(20), rand.Intn(20), rand.Intn(50)
					view.Players[j].Kills = &k
					view.Players[j].Deaths = &d
					view.Players[j].Score = &s
				}
			}

			at := starts[i].Add(time.Duration(tick) * time.Minute)
			if _, err := store.ReconcileAt(at, []models.SessionView{view}); err != nil {
				log.Warn().Err(err).Str("session", view.ID).Msg("Failed to generate fake session tick")
				break
			}
		}
	}

	log.Info().Int("sessions", count).Msg("Fake data generation finished")
}

func randomHex(n int) string {
	b := make([]byte, n/2)
	_, _ = rand.Read(b)

	return hex.EncodeToString(b)
}
