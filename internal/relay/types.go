// Package relay fetches and deserializes the lobby list payload published by
// the RakNet-style broadcast relay.
package relay

import (
	"bytes"
	"strconv"
)

// Payload is the top-level relay response. The lobby list lives under the
// relay-defined "GET" key; anything else in the document is ignored.
type Payload struct {
	Lobbies []*Lobby `json:"GET"`
}

// Lobby is one advertised match, a flat record of short cryptic keys. Several
// fields historically appear under two spellings; both are mapped and the
// short form wins when present. Unknown keys are ignored by the decoder.
type Lobby struct {
	Name        string         `json:"n"`
	NATID       string         `json:"g"`
	NATIDLong   string         `json:"NATNegID"`
	MapFile     string         `json:"m"`
	ModList     string         `json:"mm"`
	Version     string         `json:"v"`
	VersionLong string         `json:"Version"`
	Source      string         `json:"proxySource"`
	Players     []*RosterEntry `json:"pl"`
	Mode        FlexInt        `json:"si"`
	NATType     FlexInt        `json:"t"`
	TPS         FlexInt        `json:"tps"`
	TPSLong     FlexInt        `json:"TPS"`
	PingCeiling FlexInt        `json:"pgm"`
	PingWorst   FlexInt        `json:"pg"`
	TimeLimit   FlexInt        `json:"ti"`
	KillLimit   FlexInt        `json:"ki"`
}

// RosterEntry is one slot of the lobby roster. The relay emits null for empty
// slots, so entries are pointers and the slot number is positional
// (array index + 1). Stats are FlexInt pointers: absent and zero differ.
type RosterEntry struct {
	Kills  *FlexInt `json:"k"`
	Deaths *FlexInt `json:"d"`
	Score  *FlexInt `json:"s"`
	ID     string   `json:"i"`
	Name   string   `json:"n"`
}

// NATNegotiationID returns the lobby's NAT negotiation identifier,
// preferring the short key over the legacy long one.
func (l *Lobby) NATNegotiationID() string {
	if l.NATID != "" {
		return l.NATID
	}

	return l.NATIDLong
}

// GameVersion returns the reported game version, short key first.
func (l *Lobby) GameVersion() string {
	if l.Version != "" {
		return l.Version
	}

	return l.VersionLong
}

// TicksPerSecond returns the reported tick rate, short key first.
func (l *Lobby) TicksPerSecond() FlexInt {
	if l.TPS.Valid {
		return l.TPS
	}

	return l.TPSLong
}

// FlexInt accepts a JSON number or a numeric string for the same logical
// field, which the relay mixes freely. Raw preserves the original token for
// diagnostics even when it does not parse as an integer.
type FlexInt struct {
	Raw   string
	Int   int
	Valid bool
}

// UnmarshalJSON is tolerant: null and unparsable tokens leave the value
// invalid rather than failing the record.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	f.Raw, f.Int, f.Valid = "", 0, false

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	f.Raw = s

	if n, err := strconv.Atoi(s); err == nil {
		f.Int, f.Valid = n, true
		return nil
	}

	// Some tunables arrive as floats; truncate like the game does
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		f.Int, f.Valid = int(fl), true
	}

	return nil
}

// Ptr returns the parsed value as an optional int, nil when invalid.
func (f FlexInt) Ptr() *int {
	if !f.Valid {
		return nil
	}
	n := f.Int

	return &n
}
