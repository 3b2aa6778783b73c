package storage

import (
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

// CurrentSessions retrieves all live sessions seen within maxAge of now,
// newest first, hydrated with their roster and catalog display metadata.
func (r *Repository) CurrentSessions(maxAge time.Duration) ([]models.Session, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	rows, err := r.db.Query(`
		SELECT id, source, name, state, nat_type, map_file, mod_id, version, tps,
		       attributes, started_at, last_seen_at
		FROM sessions
		WHERE ended_at IS NULL AND last_seen_at >= ?
		ORDER BY last_seen_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []models.Session
	for rows.Next() {
		var (
			s     models.Session
			tps   sql.NullInt64
			attrs sql.NullString
		)
		if err := rows.Scan(
			&s.ID, &s.Source, &s.Name, &s.State, &s.NATType, &s.MapFile, &s.ModID,
			&s.Version, &tps, &attrs, &s.StartedAt, &s.LastSeenAt,
		); err != nil {
			continue
		}
		applyOptionals(&s, tps, attrs, sql.NullTime{})
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		if err := r.hydrate(&sessions[i]); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// SessionDetail retrieves a single session with its full roster and stats.
// Returns (nil, nil) when the session does not exist, which the caller must
// distinguish from a session with an empty roster.
func (r *Repository) SessionDetail(id string) (*models.Session, error) {
	row := r.db.QueryRow(`
		SELECT id, source, name, state, nat_type, map_file, mod_id, version, tps,
		       attributes, started_at, last_seen_at, ended_at
		FROM sessions
		WHERE id = ?`,
		id,
	)

	var (
		s     models.Session
		tps   sql.NullInt64
		attrs sql.NullString
		ended sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.Source, &s.Name, &s.State, &s.NATType, &s.MapFile, &s.ModID,
		&s.Version, &tps, &attrs, &s.StartedAt, &s.LastSeenAt, &ended,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	applyOptionals(&s, tps, attrs, ended)
	if err := r.hydrate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// HistorySummary buckets snapshots from the trailing window by whole minute,
// reporting distinct sessions observed and summed per-snapshot player counts.
func (r *Repository) HistorySummary(window time.Duration) ([]models.HistoryBucket, error) {
	rows, err := r.db.Query(`
		SELECT session_id, observed_at, player_count
		FROM session_snapshots
		WHERE observed_at >= ?`,
		time.Now().UTC().Add(-window),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := make(map[time.Time]int)
	distinct := make(map[time.Time]map[string]struct{})

	for rows.Next() {
		var (
			sid      string
			observed time.Time
			count    int
		)
		if err := rows.Scan(&sid, &observed, &count); err != nil {
			continue
		}

		minute := observed.UTC().Truncate(time.Minute)
		players[minute] += count
		if distinct[minute] == nil {
			distinct[minute] = make(map[string]struct{})
		}
		distinct[minute][sid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buckets := make([]models.HistoryBucket, 0, len(players))
	for minute, total := range players {
		buckets = append(buckets, models.HistoryBucket{
			Minute:   minute,
			Sessions: len(distinct[minute]),
			Players:  total,
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Minute.Before(buckets[j].Minute) })

	return buckets, nil
}

// MapsSummary aggregates snapshots from the trailing window by map file.
func (r *Repository) MapsSummary(window time.Duration) ([]models.UsageRow, error) {
	return r.usageSummary(`
		SELECT map_file, session_id, player_count
		FROM session_snapshots
		WHERE observed_at >= ? AND map_file != ''`, window)
}

// ModsSummary aggregates snapshots from the trailing window by mod id.
func (r *Repository) ModsSummary(window time.Duration) ([]models.UsageRow, error) {
	return r.usageSummary(`
		SELECT mod_id, session_id, player_count
		FROM session_snapshots
		WHERE observed_at >= ? AND mod_id != ''`, window)
}

// usageTop caps the maps/mods summaries.
const usageTop = 25

func (r *Repository) usageSummary(query string, window time.Duration) ([]models.UsageRow, error) {
	rows, err := r.db.Query(query, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := make(map[string]int)
	distinct := make(map[string]map[string]struct{})

	for rows.Next() {
		var (
			key   string
			sid   string
			count int
		)
		if err := rows.Scan(&key, &sid, &count); err != nil {
			continue
		}

		players[key] += count
		if distinct[key] == nil {
			distinct[key] = make(map[string]struct{})
		}
		distinct[key][sid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.UsageRow, 0, len(players))
	for key, total := range players {
		out = append(out, models.UsageRow{
			Key:      key,
			Sessions: len(distinct[key]),
			Players:  total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions != out[j].Sessions {
			return out[i].Sessions > out[j].Sessions
		}
		if out[i].Players != out[j].Players {
			return out[i].Players > out[j].Players
		}
		return out[i].Key < out[j].Key
	})

	if len(out) > usageTop {
		out = out[:usageTop]
	}

	return out, nil
}

// hydrate fills a session's roster and, when both mod and map are known, the
// catalog display metadata with the placeholder image fallback.
func (r *Repository) hydrate(s *models.Session) error {
	players, err := r.sessionPlayers(s.ID)
	if err != nil {
		return err
	}
	s.Players = players
	s.PlayerCount = len(players)

	if s.ModID == "" || s.MapFile == "" {
		return nil
	}

	var name, image sql.NullString
	err = r.db.QueryRow(`SELECT name, image_url FROM levels WHERE id = ?`, s.ModID+":"+s.MapFile).
		Scan(&name, &image)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	s.LevelName = name.String
	s.LevelImage = image.String
	if s.LevelImage == "" {
		s.LevelImage = PlaceholderImage
	}

	name, image = sql.NullString{}, sql.NullString{}
	err = r.db.QueryRow(`SELECT name, image_url FROM mods WHERE id = ?`, s.ModID).
		Scan(&name, &image)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	s.ModName = name.String
	s.ModImage = image.String

	return nil
}

// sessionPlayers returns the roster ordered by slot, joined with any profile
// enrichment collected for the player's external identity.
func (r *Repository) sessionPlayers(sessionID string) ([]models.SessionPlayer, error) {
	rows, err := r.db.Query(`
		SELECT sp.slot, sp.raw_id, sp.steam_id, sp.gog_id, sp.name,
		       sp.team_id, sp.is_host, sp.kills, sp.deaths, sp.score,
		       COALESCE(ps.display_name, pg.display_name, ''),
		       COALESCE(ps.avatar_url, pg.avatar_url, '')
		FROM session_players sp
		LEFT JOIN player_profiles ps ON ps.provider = 'steam' AND ps.external_id = sp.steam_id
		LEFT JOIN player_profiles pg ON pg.provider = 'gog' AND pg.external_id = sp.gog_id
		WHERE sp.session_id = ?
		ORDER BY sp.slot`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := make([]models.SessionPlayer, 0)
	for rows.Next() {
		var (
			p      models.SessionPlayer
			team   sql.NullInt64
			host   sql.NullBool
			kills  sql.NullInt64
			deaths sql.NullInt64
			score  sql.NullInt64
		)
		if err := rows.Scan(
			&p.Slot, &p.RawID, &p.SteamID, &p.GOGID, &p.Name,
			&team, &host, &kills, &deaths, &score,
			&p.DisplayName, &p.AvatarURL,
		); err != nil {
			continue
		}

		p.SessionID = sessionID
		p.TeamID = intPtr(team)
		p.Kills = intPtr(kills)
		p.Deaths = intPtr(deaths)
		p.Score = intPtr(score)
		if host.Valid && host.Bool {
			v := true
			p.IsHost = &v
		}

		players = append(players, p)
	}

	return players, rows.Err()
}

func applyOptionals(s *models.Session, tps sql.NullInt64, attrs sql.NullString, ended sql.NullTime) {
	if tps.Valid {
		v := int(tps.Int64)
		s.TPS = &v
	}
	if attrs.Valid && attrs.String != "" {
		_ = json.Unmarshal([]byte(attrs.String), &s.Attributes)
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)

	return &n
}
