package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

type memStore struct {
	levels   []models.Level
	mods     []models.Mod
	profiles []models.PlayerProfile
}

func (m *memStore) UpsertLevelMetadata(l models.Level) error {
	m.levels = append(m.levels, l)
	return nil
}

func (m *memStore) UpsertModMetadata(mod models.Mod) error {
	m.mods = append(m.mods, mod)
	return nil
}

func (m *memStore) UpsertPlayerProfile(p models.PlayerProfile) error {
	m.profiles = append(m.profiles, p)
	return nil
}

func viewWith(mod, mapFile string, steamIDs ...string) models.SessionView {
	v := models.SessionView{ID: "Rebellion:1", Source: "Rebellion", Mod: mod, MapFile: mapFile}
	for i, id := range steamIDs {
		v.Players = append(v.Players, models.PlayerView{RawID: "S" + id, SteamID: id, Slot: i + 1})
	}

	return v
}

func TestEnrichLevelsAndMods(t *testing.T) {
	var gotMap, gotMod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMap = r.URL.Query().Get("map")
		gotMod = r.URL.Query().Get("mod")
		_, _ = w.Write([]byte(`{
			"title": "Dunes",
			"image": "img/dunes.jpg",
			"mods": {"1325933293": {"workshop_name": "VSR Pack", "image": "img/vsr.png"}}
		}`))
	}))
	defer srv.Close()

	store := &memStore{}
	e := New(store, Options{GetdataBase: srv.URL + "/getdata.php", Timeout: time.Second})

	e.Process(context.Background(), []models.SessionView{
		viewWith("1325933293", "Dunes.bzn"),
		viewWith("1325933293", "dunes.bzn"), // same pair after lowercasing, deduped
	})

	assert.Equal(t, "dunes.bzn", gotMap)
	assert.Equal(t, "1325933293", gotMod)

	require.Len(t, store.levels, 1)
	assert.Equal(t, "1325933293:Dunes.bzn", store.levels[0].ID)
	assert.Equal(t, "Dunes", store.levels[0].Name)
	assert.Equal(t, srv.URL+"/img/dunes.jpg", store.levels[0].ImageURL)

	require.Len(t, store.mods, 1)
	assert.Equal(t, "VSR Pack", store.mods[0].Name)
}

func TestEnrichLevelsFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &memStore{}
	e := New(store, Options{GetdataBase: srv.URL + "/getdata.php", Timeout: time.Second})

	e.Process(context.Background(), []models.SessionView{viewWith("0", "anything.bzn")})

	assert.Empty(t, store.levels)
	assert.Empty(t, store.mods)
}

func TestEnrichProfiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key123", r.URL.Query().Get("key"))
		assert.Equal(t, "111,222", r.URL.Query().Get("steamids"))
		_, _ = w.Write([]byte(`{"response":{"players":[
			{"steamid":"111","personaname":"AlphaWolf","avatarfull":"https://a/full.jpg","profileurl":"https://p/111"},
			{"steamid":"222","personaname":"Bravo","avatar":"https://a/small.jpg"}
		]}}`))
	}))
	defer srv.Close()

	store := &memStore{}
	e := New(store, Options{SteamAPIKey: "key123", Timeout: time.Second, SteamPerSec: 100, steamURL: srv.URL})

	e.Process(context.Background(), []models.SessionView{viewWith("", "", "111", "222", "111")})

	require.Len(t, store.profiles, 2)
	assert.Equal(t, "steam", store.profiles[0].Provider)
	assert.Equal(t, "AlphaWolf", store.profiles[0].DisplayName)
	assert.Equal(t, "https://a/full.jpg", store.profiles[0].AvatarURL)
	assert.Equal(t, "https://a/small.jpg", store.profiles[1].AvatarURL)
}

func TestDisabledCollaboratorsDoNothing(t *testing.T) {
	store := &memStore{}
	e := New(store, Options{})

	e.Process(context.Background(), []models.SessionView{viewWith("0", "map.bzn", "111")})

	assert.Empty(t, store.levels)
	assert.Empty(t, store.profiles)
}
