package normalize

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bz2vsr/battlezone-combat-commander/internal/relay"
)

const (
	stdAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	altAlphabet = "@123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"
)

// altGUID encodes bytes the way the relay writes NAT GUIDs.
func altGUID(b []byte) string {
	std := strings.TrimRight(base64.StdEncoding.EncodeToString(b), "=")

	var out strings.Builder
	for _, ch := range std {
		out.WriteByte(altAlphabet[strings.IndexRune(stdAlphabet, ch)])
	}

	return out.String()
}

// b64name wraps a name in the fixed-width base64 text encoding.
func b64name(s string) string {
	return base64.StdEncoding.EncodeToString(append([]byte(s), 0x00, 0x00))
}

func parse(t *testing.T, raw string) *relay.Payload {
	t.Helper()
	var p relay.Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	return &p
}

func TestSentinelRecordSkipped(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"XXXXXXX@XX","n":"aWdub3JlZA==","si":3}]}`)
	assert.Empty(t, Sessions(p))
}

func TestMissingNATIDSkipped(t *testing.T) {
	p := parse(t, `{"GET":[{"n":"aWdub3JlZA=="},null]}`)
	assert.Empty(t, Sessions(p))
}

func TestMalformedPayloadYieldsEmpty(t *testing.T) {
	assert.Empty(t, Sessions(nil))
	assert.Empty(t, Sessions(&relay.Payload{}))
}

func TestIdentityDerivation(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
	guid := altGUID(raw)

	p := parse(t, `{"GET":[{"g":"`+guid+`"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "Rebellion:"+hex.EncodeToString(raw), views[0].ID)
	assert.Equal(t, "Rebellion", views[0].Source)
}

func TestIdentityUsesProxySourceAndLegacyKey(t *testing.T) {
	raw := []byte{0x01, 0x02}
	guid := altGUID(raw)

	p := parse(t, `{"GET":[{"NATNegID":"`+guid+`","proxySource":"IonDriver"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "IonDriver:"+hex.EncodeToString(raw), views[0].ID)
	assert.Equal(t, "IonDriver", views[0].Source)
}

func TestUndecodableGUIDKeptRaw(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"???bad???"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "Rebellion:???bad???", views[0].ID)
}

func TestTitleDecodeAndCollapse(t *testing.T) {
	name := b64name("Big   Battle\t Night")
	p := parse(t, `{"GET":[{"g":"1@@@","n":"`+name+`"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "Big Battle Night", views[0].Name)
}

func TestUndecodableTitleAbsent(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","n":"!!!"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Empty(t, views[0].Name)
}

func TestModList(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","mm":"1325933293;2947593;881"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "1325933293", views[0].Mod)
	assert.Equal(t, []string{"1325933293", "2947593", "881"}, views[0].Mods)
}

func TestModDefaultsToBaseGame(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","v":"2.0.185"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "0", views[0].Mod)
	assert.Equal(t, "2.0.185", views[0].Version)
}

func TestNoModWithoutVersion(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Empty(t, views[0].Mod)
	assert.Empty(t, views[0].Mods)
}

func TestRosterSlotsTeamsAndPrefixes(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","si":3,"pl":[
		{"i":"S76561198012345678","n":"`+b64name("Alpha")+`","s":10},
		null,null,null,null,
		{"i":"G987654","n":"`+b64name("Bravo")+`","s":5},
		null,null,null,null,
		{"i":"X42","n":"`+b64name("Watcher")+`"}
	]}]}`)

	views := Sessions(p)
	require.Len(t, views, 1)
	view := views[0]

	assert.Equal(t, "InGame", view.State)
	require.Len(t, view.Players, 3)

	alpha := view.Players[0]
	assert.Equal(t, 1, alpha.Slot)
	require.NotNil(t, alpha.TeamID)
	assert.Equal(t, 1, *alpha.TeamID)
	assert.Equal(t, "76561198012345678", alpha.SteamID)
	assert.Empty(t, alpha.GOGID)
	assert.Equal(t, "Alpha", alpha.Name)
	require.NotNil(t, alpha.Score)
	assert.Equal(t, 10, *alpha.Score)
	assert.Nil(t, alpha.Kills)

	bravo := view.Players[1]
	assert.Equal(t, 6, bravo.Slot)
	require.NotNil(t, bravo.TeamID)
	assert.Equal(t, 2, *bravo.TeamID)
	assert.Equal(t, "987654", bravo.GOGID)
	assert.Empty(t, bravo.SteamID)

	watcher := view.Players[2]
	assert.Equal(t, 11, watcher.Slot)
	assert.Nil(t, watcher.TeamID)
	assert.Empty(t, watcher.SteamID)
	assert.Empty(t, watcher.GOGID)
	assert.Equal(t, "X42", watcher.RawID)
}

func TestStateMapping(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{`{"GET":[{"g":"1@@@","si":1}]}`, "PreGame"},
		{`{"GET":[{"g":"1@@@","si":2}]}`, "PreGame"},
		{`{"GET":[{"g":"1@@@","si":3}]}`, "InGame"},
		{`{"GET":[{"g":"1@@@","si":"4"}]}`, "InGame"},
		{`{"GET":[{"g":"1@@@","si":5}]}`, "PostGame"},
		{`{"GET":[{"g":"1@@@","si":9}]}`, ""},
		{`{"GET":[{"g":"1@@@"}]}`, ""},
	}

	for _, tc := range cases {
		views := Sessions(parse(t, tc.payload))
		require.Len(t, views, 1, tc.payload)
		assert.Equal(t, tc.want, views[0].State, tc.payload)
	}
}

func TestPreGameUpgradedByStats(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","si":2,"pl":[{"i":"S1","k":3}]}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "InGame", views[0].State)
}

func TestPreGameZeroStatsStaysPreGame(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","si":2,"pl":[{"i":"S1","k":0,"d":0,"s":0}]}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, "PreGame", views[0].State)
}

func TestNATClassification(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{`{"GET":[{"g":"1@@@","t":0}]}`, "None"},
		{`{"GET":[{"g":"1@@@","t":"2"}]}`, "Address Restricted"},
		{`{"GET":[{"g":"1@@@","t":7}]}`, "Supports UPNP"},
		{`{"GET":[{"g":"1@@@","t":9}]}`, "[9]"},
		{`{"GET":[{"g":"1@@@","t":"weird"}]}`, "[weird]"},
		{`{"GET":[{"g":"1@@@"}]}`, ""},
	}

	for _, tc := range cases {
		views := Sessions(parse(t, tc.payload))
		require.Len(t, views, 1, tc.payload)
		assert.Equal(t, tc.want, views[0].NATType, tc.payload)
	}
}

func TestAttributes(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","pgm":300,"pg":"123","ti":30}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Equal(t, map[string]float64{
		"ping_ceiling": 300,
		"ping_worst":   123,
		"time_limit":   30,
	}, views[0].Attributes)
}

func TestAttributesAbsentWhenNoneReported(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@"}]}`)
	views := Sessions(p)
	require.Len(t, views, 1)

	assert.Nil(t, views[0].Attributes)
}

func TestSpecScenarioInGameTwoTeams(t *testing.T) {
	p := parse(t, `{"GET":[{"g":"1@@@","si":3,"pl":[
		{"i":"S100","s":7},null,null,null,null,null,{"i":"S200","s":4}
	]}]}`)

	views := Sessions(p)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "InGame", view.State)
	require.Len(t, view.Players, 2)
	assert.Equal(t, 1, *view.Players[0].TeamID)
	assert.Equal(t, 2, *view.Players[1].TeamID)
}
