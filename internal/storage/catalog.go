package storage

import (
	"time"

	"github.com/bz2vsr/battlezone-combat-commander/internal/models"
)

// UpsertLevelMetadata records enrichment output for a level. Existing values
// win over empty ones, so a failed or partial lookup never erases data the
// catalog already holds.
func (r *Repository) UpsertLevelMetadata(l models.Level) error {
	_, err := r.db.Exec(`
		INSERT INTO levels (id, mod_id, map_file, name, image_url)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(NULLIF(excluded.name, ''), levels.name),
			image_url = COALESCE(NULLIF(excluded.image_url, ''), levels.image_url)`,
		l.ID, l.ModID, l.MapFile, l.Name, l.ImageURL,
	)

	return err
}

// UpsertModMetadata records enrichment output for a mod, same non-clobbering
// rules as UpsertLevelMetadata.
func (r *Repository) UpsertModMetadata(m models.Mod) error {
	_, err := r.db.Exec(`
		INSERT INTO mods (id, name, image_url)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(NULLIF(excluded.name, ''), mods.name),
			image_url = COALESCE(NULLIF(excluded.image_url, ''), mods.image_url)`,
		m.ID, m.Name, m.ImageURL,
	)

	return err
}

// UpsertPlayerProfile records a profile lookup result for one external
// identity.
func (r *Repository) UpsertPlayerProfile(p models.PlayerProfile) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO player_profiles (provider, external_id, display_name, avatar_url, profile_url, updated_at)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?)
		ON CONFLICT(provider, external_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(excluded.display_name, ''), player_profiles.display_name),
			avatar_url = COALESCE(NULLIF(excluded.avatar_url, ''), player_profiles.avatar_url),
			profile_url = COALESCE(NULLIF(excluded.profile_url, ''), player_profiles.profile_url),
			updated_at = excluded.updated_at`,
		p.Provider, p.ExternalID, p.DisplayName, p.AvatarURL, p.ProfileURL, updated,
	)

	return err
}
