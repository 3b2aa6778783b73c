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

// getdataResponse is the community endpoint's answer for one (map, mod)
// query: level title/image plus details for the mods involved.
type getdataResponse struct {
	Mods  map[string]getdataMod `json:"mods"`
	Title string                `json:"title"`
	Image string                `json:"image"`
}

type getdataMod struct {
	Name         string `json:"name"`
	WorkshopName string `json:"workshop_name"`
	Image        string `json:"image"`
}

// enrichLevels looks up display metadata for every unique (mod, map) pair in
// the tick and upserts the catalog. Returns counts for logging.
func (e *Enricher) enrichLevels(ctx context.Context, views []models.SessionView) (int, int) {
	if e.opts.GetdataBase == "" {
		return 0, 0
	}

	var levels, mods int
	seen := make(map[string]struct{})

	for i := range views {
		v := &views[i]
		if v.Mod == "" || v.MapFile == "" {
			continue
		}

		// The reference endpoint expects the lowercase map id
		mapQuery := strings.ToLower(v.MapFile)
		key := v.Mod + ":" + mapQuery
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		data, err := e.fetchGetdata(ctx, mapQuery, v.Mod)
		if err != nil {
			log.Debug().Err(err).Str("map", v.MapFile).Str("mod", v.Mod).Msg("getdata lookup failed")
			continue
		}

		level := models.Level{
			ID:       v.Mod + ":" + v.MapFile,
			ModID:    v.Mod,
			MapFile:  v.MapFile,
			Name:     data.Title,
			ImageURL: e.assetURL(data.Image),
		}
		if err := e.store.UpsertLevelMetadata(level); err != nil {
			log.Warn().Err(err).Str("level", level.ID).Msg("Failed to save level metadata")
			continue
		}
		levels++

		if info, ok := data.Mods[v.Mod]; ok {
			name := info.Name
			if name == "" {
				name = info.WorkshopName
			}
			mod := models.Mod{ID: v.Mod, Name: name, ImageURL: e.assetURL(info.Image)}
			if err := e.store.UpsertModMetadata(mod); err != nil {
				log.Warn().Err(err).Str("mod", v.Mod).Msg("Failed to save mod metadata")
				continue
			}
			mods++
		}
	}

	return levels, mods
}

func (e *Enricher) fetchGetdata(ctx context.Context, mapFile, modID string) (*getdataResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.opts.GetdataBase, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("map", mapFile)
	q.Set("mod", modID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", "BZCC-Collector/1.0")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getdata returned status %d", resp.StatusCode)
	}

	var data getdataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	return &data, nil
}

// assetURL resolves a relative asset path against the getdata base
// directory, e.g. …/bzcc/getdata.php -> …/bzcc/<path>.
func (e *Enricher) assetURL(rel string) string {
	if rel == "" {
		return ""
	}

	base := e.opts.GetdataBase
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[:i]
	}

	return base + "/" + strings.TrimPrefix(rel, "/")
}
