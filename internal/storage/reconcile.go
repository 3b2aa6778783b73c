package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

// Reconcile applies one poll tick's normalized views against the store.
// See ReconcileAt.
func (r *Repository) Reconcile(views []models.SessionView) (models.ReconcileCounts, error) {
	return r.ReconcileAt(time.Now().UTC(), views)
}

// ReconcileAt runs the whole tick in a single transaction: session upsert,
// roster mirror by slot, snapshot append, catalog placeholders and staleness
// reaping. Any failure rolls the entire tick back; a reader never observes a
// half-applied tick.
func (r *Repository) ReconcileAt(now time.Time, views []models.SessionView) (models.ReconcileCounts, error) {
	var counts models.ReconcileCounts

	tx, err := r.db.Begin()
	if err != nil {
		return counts, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range views {
		v := &views[i]

		created, err := upsertSession(tx, now, v)
		if err != nil {
			return counts, fmt.Errorf("upsert session %s: %w", v.ID, err)
		}
		if created {
			counts.Created++
		} else {
			counts.Updated++
		}

		n, err := mirrorRoster(tx, v)
		if err != nil {
			return counts, fmt.Errorf("reconcile roster %s: %w", v.ID, err)
		}
		counts.Players += n

		if err := appendSnapshot(tx, now, v); err != nil {
			return counts, fmt.Errorf("append snapshot %s: %w", v.ID, err)
		}
		counts.Snapshots++

		if err := ensureCatalog(tx, v); err != nil {
			return counts, fmt.Errorf("ensure catalog %s: %w", v.ID, err)
		}
	}

	ended, err := reapStale(tx, now, r.grace)
	if err != nil {
		return counts, fmt.Errorf("reap stale sessions: %w", err)
	}
	counts.Ended = ended

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit reconcile tx: %w", err)
	}

	return counts, nil
}

// upsertSession creates an unseen session (started_at = now) or refreshes a
// known one. Reporting always bumps last_seen_at and clears ended_at, so a
// session that went stale and comes back is revived. Attributes are only
// overwritten when the view carries them.
func upsertSession(tx *sql.Tx, now time.Time, v *models.SessionView) (bool, error) {
	attrs, err := marshalAttributes(v.Attributes)
	if err != nil {
		return false, err
	}

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, v.ID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO sessions (
				id, source, name, state, nat_type, map_file, mod_id, version, tps,
				attributes, started_at, last_seen_at, ended_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			v.ID, v.Source, v.Name, v.State, v.NATType, v.MapFile, v.Mod, v.Version,
			nullInt(v.TPS), attrs, now, now,
		)
		return true, err

	case err != nil:
		return false, err
	}

	_, err = tx.Exec(`
		UPDATE sessions SET
			source = ?, name = ?, state = ?, nat_type = ?, map_file = ?,
			mod_id = ?, version = ?, tps = ?,
			attributes = COALESCE(?, attributes),
			last_seen_at = ?, ended_at = NULL
		WHERE id = ?`,
		v.Source, v.Name, v.State, v.NATType, v.MapFile,
		v.Mod, v.Version, nullInt(v.TPS), attrs, now, v.ID,
	)

	return false, err
}

// mirrorRoster makes session_players an exact mirror of this tick's roster:
// upsert by (session, slot), then delete slots absent from the view.
func mirrorRoster(tx *sql.Tx, v *models.SessionView) (int, error) {
	kept := make(map[int]struct{}, len(v.Players))

	for _, p := range v.Players {
		kept[p.Slot] = struct{}{}

		_, err := tx.Exec(`
			INSERT INTO session_players (
				session_id, slot, raw_id, steam_id, gog_id, name,
				team_id, is_host, kills, deaths, score
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, slot) DO UPDATE SET
				raw_id = excluded.raw_id,
				steam_id = excluded.steam_id,
				gog_id = excluded.gog_id,
				name = excluded.name,
				team_id = excluded.team_id,
				is_host = excluded.is_host,
				kills = excluded.kills,
				deaths = excluded.deaths,
				score = excluded.score`,
			v.ID, p.Slot, p.RawID, p.SteamID, p.GOGID, p.Name,
			nullInt(p.TeamID), nullBool(isHost(p.Slot)), nullInt(p.Kills), nullInt(p.Deaths), nullInt(p.Score),
		)
		if err != nil {
			return 0, err
		}
	}

	// Drop slots that vanished from this tick's roster
	query := `DELETE FROM session_players WHERE session_id = ?`
	args := []interface{}{v.ID}
	if len(kept) > 0 {
		ph := make([]string, 0, len(kept))
		for slot := range kept {
			ph = append(ph, "?")
			args = append(args, slot)
		}
		query += ` AND slot NOT IN (` + strings.Join(ph, ", ") + `)`
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return 0, err
	}

	return len(v.Players), nil
}

// appendSnapshot writes the immutable per-tick history row. This is the only
// place trend data survives; it is never updated afterwards.
func appendSnapshot(tx *sql.Tx, now time.Time, v *models.SessionView) error {
	_, err := tx.Exec(`
		INSERT INTO session_snapshots (session_id, observed_at, player_count, state, map_file, mod_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, now, len(v.Players), v.State, v.MapFile, v.Mod,
	)

	return err
}

// ensureCatalog inserts placeholder mod and level rows for everything seen
// this tick. INSERT OR IGNORE so richer enrichment data is never overwritten.
func ensureCatalog(tx *sql.Tx, v *models.SessionView) error {
	for _, modID := range v.Mods {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO mods (id) VALUES (?)`, modID); err != nil {
			return err
		}
	}

	if v.Mod != "" && v.MapFile != "" {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO levels (id, mod_id, map_file)
			VALUES (?, ?, ?)`,
			v.Mod+":"+v.MapFile, v.Mod, v.MapFile,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// reapStale marks live sessions ended when they have not been reported for
// longer than the grace window.
func reapStale(tx *sql.Tx, now time.Time, grace time.Duration) (int, error) {
	res, err := tx.Exec(`
		UPDATE sessions SET ended_at = ?
		WHERE ended_at IS NULL AND last_seen_at < ?`,
		now, now.Add(-grace),
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()

	return int(n), err
}

func isHost(slot int) *bool {
	if slot == 1 || slot == 6 {
		host := true
		return &host
	}

	return nil
}

func marshalAttributes(attrs map[string]float64) (interface{}, error) {
	if attrs == nil {
		return nil, nil
	}

	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}

	return *v
}

func nullBool(v *bool) interface{} {
	if v == nil {
		return nil
	}

	return *v
}
