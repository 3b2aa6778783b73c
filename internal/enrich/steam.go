package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

// steamSummariesURL is the GetPlayerSummaries endpoint; it accepts up to 100
// ids per call.
const steamSummariesURL = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v2/"

const steamBatchSize = 100

type steamSummaries struct {
	Response struct {
		Players []steamPlayer `json:"players"`
	} `json:"response"`
}

type steamPlayer struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatar"`
	AvatarFull  string `json:"avatarfull"`
	ProfileURL  string `json:"profileurl"`
}

// enrichProfiles looks up Steam profiles for the unique Steam ids seen in
// this tick's rosters. GOG identities are retained raw; no public lookup is
// available without an OAuth app. Returns the number of profiles upserted.
func (e *Enricher) enrichProfiles(ctx context.Context, views []models.SessionView) int {
	if e.opts.SteamAPIKey == "" {
		return 0
	}

	unique := make(map[string]struct{})
	var ids []string
	for i := range views {
		for _, p := range views[i].Players {
			if p.SteamID == "" {
				continue
			}
			if _, ok := unique[p.SteamID]; ok {
				continue
			}
			unique[p.SteamID] = struct{}{}
			ids = append(ids, p.SteamID)
		}
	}
	if len(ids) == 0 {
		return 0
	}

	var updated int
	for start := 0; start < len(ids); start += steamBatchSize {
		end := min(start+steamBatchSize, len(ids))

		if err := e.limiter.Wait(ctx); err != nil {
			return updated
		}

		players, err := e.fetchSummaries(ctx, ids[start:end])
		if err != nil {
			log.Debug().Err(err).Int("batch", end-start).Msg("Steam summaries lookup failed")
			continue
		}

		for _, p := range players {
			if p.SteamID == "" {
				continue
			}

			avatar := p.AvatarFull
			if avatar == "" {
				avatar = p.Avatar
			}

			profile := models.PlayerProfile{
				Provider:    "steam",
				ExternalID:  p.SteamID,
				DisplayName: p.PersonaName,
				AvatarURL:   avatar,
				ProfileURL:  p.ProfileURL,
			}
			if err := e.store.UpsertPlayerProfile(profile); err != nil {
				log.Warn().Err(err).Str("steam_id", p.SteamID).Msg("Failed to save player profile")
				continue
			}
			updated++
		}
	}

	return updated
}

func (e *Enricher) fetchSummaries(ctx context.Context, ids []string) ([]steamPlayer, error) {
	endpoint := e.opts.steamURL
	if endpoint == "" {
		endpoint = steamSummariesURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", e.opts.SteamAPIKey)
	q.Set("steamids", strings.Join(ids, ","))
	req.URL.RawQuery = q.Encode()

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam api returned status %d", resp.StatusCode)
	}

	var data steamSummaries
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Response.Players, nil
}
