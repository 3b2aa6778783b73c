// Package normalize turns raw relay lobby records into canonical session
// views: stable identifiers, decoded names, derived state, NAT class, roster
// with team assignment and open attributes.
package normalize

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/codec"
	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
	"github.com/bz2vsr/battlezone-combat-commander/internal/relay"
)

// SentinelNoSession is the placeholder NAT id the relay publishes for empty
// advertisement slots. Records carrying it are not sessions.
const SentinelNoSession = "XXXXXXX@XX"

// DefaultSource is assumed when the relay does not tag the reporting proxy.
const DefaultSource = "Rebellion"

// natTypeNames maps the relay's NAT detection codes to display classes.
// Codes outside the table surface as a bracketed literal so unmapped values
// stay visible downstream.
var natTypeNames = map[int]string{
	0: "None",
	1: "Full Cone",
	2: "Address Restricted",
	3: "Port Restricted",
	4: "Symmetric",
	5: "Unknown",
	6: "Detection In Progress",
	7: "Supports UPNP",
}

// Sessions produces an ordered sequence of session views from one poll
// payload. Placeholder and malformed records are skipped, never fatal; a
// payload without a lobby list yields an empty sequence.
func Sessions(p *relay.Payload) []models.SessionView {
	views := make([]models.SessionView, 0)
	if p == nil {
		return views
	}

	for _, lobby := range p.Lobbies {
		if lobby == nil {
			continue
		}

		view, ok := session(lobby)
		if !ok {
			continue
		}
		views = append(views, view)
	}

	return views
}

func session(l *relay.Lobby) (models.SessionView, bool) {
	nat := l.NATNegotiationID()
	if nat == "" || nat == SentinelNoSession {
		// Empty advertisement slot, not a session
		return models.SessionView{}, false
	}

	source := l.Source
	if source == "" {
		source = DefaultSource
	}

	view := models.SessionView{
		ID:      fmt.Sprintf("%s:%s", source, sessionHex(nat)),
		Source:  source,
		Name:    CollapseSpaces(codec.DecodeFixedText(l.Name)),
		MapFile: l.MapFile,
		Version: l.GameVersion(),
		TPS:     l.TicksPerSecond().Ptr(),
		NATType: natType(l.NATType),
	}

	view.Mods = modList(l.ModList, view.Version)
	if len(view.Mods) > 0 {
		view.Mod = view.Mods[0]
	}

	view.Players = roster(l.Players)
	view.State = state(l.Mode, view.Players)
	view.Attributes = attributes(l)

	return view, true
}

// sessionHex renders the decoded NAT negotiation id as lowercase hex. A GUID
// that fails to decode is used verbatim as an opaque identifier; identity
// only has to be stable, not pretty.
func sessionHex(nat string) string {
	raw, err := codec.DecodeOpaqueID(nat)
	if err != nil {
		log.Debug().Str("guid", nat).Msg("Undecodable NAT id, keeping raw")
		return nat
	}

	return hex.EncodeToString(raw)
}

// modList splits the semicolon-delimited mod field, keeping order. An empty
// field with a known game version means the base game, mod id "0".
func modList(mm, version string) []string {
	var mods []string
	for _, id := range strings.Split(mm, ";") {
		if id = strings.TrimSpace(id); id != "" {
			mods = append(mods, id)
		}
	}

	if len(mods) == 0 && version != "" {
		mods = []string{"0"}
	}

	return mods
}

// roster decodes the positional player array. Null entries are empty slots:
// they keep their position for slot numbering but are not players.
func roster(entries []*relay.RosterEntry) []models.PlayerView {
	var players []models.PlayerView
	for i, e := range entries {
		if e == nil {
			continue
		}

		p := models.PlayerView{
			RawID:  e.ID,
			Name:   CollapseSpaces(codec.DecodeFixedText(e.Name)),
			Slot:   i + 1,
			TeamID: teamForSlot(i + 1),
			Kills:  statPtr(e.Kills),
			Deaths: statPtr(e.Deaths),
			Score:  statPtr(e.Score),
		}

		// One-character platform prefix on the opaque id
		switch {
		case strings.HasPrefix(e.ID, "S") && len(e.ID) > 1:
			p.SteamID = e.ID[1:]
		case strings.HasPrefix(e.ID, "G") && len(e.ID) > 1:
			p.GOGID = e.ID[1:]
		}

		players = append(players, p)
	}

	return players
}

// teamForSlot maps the game's positional team layout: slots 1-5 are team 1,
// slots 6-10 team 2, anything else is unassigned.
func teamForSlot(slot int) *int {
	var team int
	switch {
	case slot >= 1 && slot <= 5:
		team = 1
	case slot >= 6 && slot <= 10:
		team = 2
	default:
		return nil
	}

	return &team
}

// state maps the server-info mode to a lifecycle state. Modes 1-2 normally
// mean PreGame, but a roster with nonzero stats upgrades to InGame: after a
// mid-game reconnect the mode flag lags reality. Unknown modes stay absent
// rather than guessed.
func state(mode relay.FlexInt, players []models.PlayerView) string {
	if !mode.Valid {
		return ""
	}

	switch mode.Int {
	case 1, 2:
		if hasStats(players) {
			return models.StateInGame
		}
		return models.StatePreGame
	case 3, 4:
		return models.StateInGame
	case 5:
		return models.StatePostGame
	default:
		return ""
	}
}

func hasStats(players []models.PlayerView) bool {
	nonzero := func(v *int) bool { return v != nil && *v != 0 }
	for _, p := range players {
		if nonzero(p.Kills) || nonzero(p.Deaths) || nonzero(p.Score) {
			return true
		}
	}

	return false
}

func natType(code relay.FlexInt) string {
	if code.Raw == "" {
		return ""
	}

	if code.Valid {
		if name, ok := natTypeNames[code.Int]; ok {
			return name
		}
	}

	return fmt.Sprintf("[%s]", code.Raw)
}

// attributes collects the optional numeric tunables. Nil when none are
// present so storage can tell "not reported" from "reported as empty".
func attributes(l *relay.Lobby) map[string]float64 {
	attrs := make(map[string]float64)

	put := func(key string, v relay.FlexInt) {
		if v.Valid {
			attrs[key] = float64(v.Int)
		}
	}
	put(models.AttrPingCeiling, l.PingCeiling)
	put(models.AttrPingWorst, l.PingWorst)
	put(models.AttrTimeLimit, l.TimeLimit)
	put(models.AttrKillLimit, l.KillLimit)

	if len(attrs) == 0 {
		return nil
	}

	return attrs
}

// statPtr converts an optional wire stat to an optional int, preserving the
// absent/zero distinction.
func statPtr(f *relay.FlexInt) *int {
	if f == nil || !f.Valid {
		return nil
	}
	n := f.Int

	return &n
}

// CollapseSpaces trims the string and squeezes internal whitespace runs to
// single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
