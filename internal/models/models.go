// Package models defines the canonical session/player views produced by the
// normalizer and the persisted entities stored in the database.
package models

import "time"

// Session lifecycle states derived from the relay's server-info mode.
const (
	StatePreGame  = "PreGame"
	StateInGame   = "InGame"
	StatePostGame = "PostGame"
)

// Attribute keys carried in SessionView.Attributes when the relay reports them.
const (
	AttrPingCeiling = "ping_ceiling"
	AttrPingWorst   = "ping_worst"
	AttrTimeLimit   = "time_limit"
	AttrKillLimit   = "kill_limit"
)

// SessionView is the transient, normalized form of one advertised lobby for a
// single poll tick. Empty strings mean "absent"; a nil Attributes map means
// the relay reported none (distinct from an empty map).
type SessionView struct {
	Attributes map[string]float64 `json:"attributes,omitempty"`
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	Name       string             `json:"name,omitempty"`
	State      string             `json:"state,omitempty"`
	NATType    string             `json:"nat_type,omitempty"`
	MapFile    string             `json:"map_file,omitempty"`
	Mod        string             `json:"mod,omitempty"`
	Version    string             `json:"version,omitempty"`
	Mods       []string           `json:"mods,omitempty"`
	Players    []PlayerView       `json:"players"`
	TPS        *int               `json:"tps,omitempty"`
}

// PlayerView is one occupied roster slot. SteamID and GOGID are mutually
// exclusive, both empty when the platform prefix is unrecognized. Stats are
// pointers because zero and "not reported" are distinct signals.
type PlayerView struct {
	RawID   string `json:"raw_id"`
	SteamID string `json:"steam_id,omitempty"`
	GOGID   string `json:"gog_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Slot    int    `json:"slot"`
	TeamID  *int   `json:"team_id,omitempty"`
	Kills   *int   `json:"kills,omitempty"`
	Deaths  *int   `json:"deaths,omitempty"`
	Score   *int   `json:"score,omitempty"`
}

// Session is the persisted current-state row for one lobby. EndedAt is nil
// while the session is live; LastSeenAt is monotonically non-decreasing
// while live. Level/Mod display fields are hydrated from the catalog on read.
type Session struct {
	StartedAt   time.Time          `json:"started_at"`
	LastSeenAt  time.Time          `json:"last_seen_at"`
	EndedAt     *time.Time         `json:"ended_at,omitempty"`
	Attributes  map[string]float64 `json:"attributes,omitempty"`
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Name        string             `json:"name,omitempty"`
	State       string             `json:"state,omitempty"`
	NATType     string             `json:"nat_type,omitempty"`
	MapFile     string             `json:"map_file,omitempty"`
	ModID       string             `json:"mod_id,omitempty"`
	Version     string             `json:"version,omitempty"`
	LevelName   string             `json:"level_name,omitempty"`
	LevelImage  string             `json:"level_image,omitempty"`
	ModName     string             `json:"mod_name,omitempty"`
	ModImage    string             `json:"mod_image,omitempty"`
	Players     []SessionPlayer    `json:"players"`
	TPS         *int               `json:"tps,omitempty"`
	PlayerCount int                `json:"player_count"`
}

// SessionPlayer is a persisted roster slot, identity (session_id, slot).
// The set of rows for a session always mirrors the latest tick exactly.
type SessionPlayer struct {
	SessionID   string `json:"-"`
	RawID       string `json:"raw_id"`
	SteamID     string `json:"steam_id,omitempty"`
	GOGID       string `json:"gog_id,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Slot        int    `json:"slot"`
	TeamID      *int   `json:"team_id,omitempty"`
	IsHost      *bool  `json:"is_host,omitempty"`
	Kills       *int   `json:"kills,omitempty"`
	Deaths      *int   `json:"deaths,omitempty"`
	Score       *int   `json:"score,omitempty"`
}

// Snapshot is an immutable per-tick historical record used only for trend
// aggregation. Never updated; deleted only by manual retention pruning.
type Snapshot struct {
	ObservedAt  time.Time `json:"observed_at"`
	SessionID   string    `json:"session_id"`
	State       string    `json:"state,omitempty"`
	MapFile     string    `json:"map_file,omitempty"`
	ModID       string    `json:"mod_id,omitempty"`
	ID          int64     `json:"id"`
	PlayerCount int       `json:"player_count"`
}

// Mod is a catalog row for one mod identifier, enriched out of band.
type Mod struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Level is a catalog row for one (mod, map) combination, id "mod:map".
type Level struct {
	ID       string `json:"id"`
	ModID    string `json:"mod_id"`
	MapFile  string `json:"map_file"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// PlayerProfile is enrichment output for one external identity.
type PlayerProfile struct {
	UpdatedAt   time.Time `json:"updated_at"`
	Provider    string    `json:"provider"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	ProfileURL  string    `json:"profile_url,omitempty"`
}

// ReconcileCounts reports what one reconciliation tick did.
type ReconcileCounts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Players   int `json:"players"`
	Snapshots int `json:"snapshots"`
	Ended     int `json:"ended"`
}

// HistoryBucket is one whole-minute bucket of snapshot aggregates.
type HistoryBucket struct {
	Minute   time.Time `json:"minute"`
	Sessions int       `json:"sessions"`
	Players  int       `json:"players"`
}

// UsageRow is one map or mod aggregate over a trailing window.
type UsageRow struct {
	Key      string `json:"key"`
	Sessions int    `json:"sessions"`
	Players  int    `json:"players"`
}
