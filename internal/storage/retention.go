package storage

import "time"

// PruneSnapshots deletes snapshot rows older than the given duration. This
// is the only code path that ever removes snapshots; the reconcile loop
// treats them as append-only.
func (r *Repository) PruneSnapshots(olderThan time.Duration) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM session_snapshots WHERE observed_at < ?`,
		time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// PruneEndedSessions deletes sessions that ended longer than the given
// duration ago, cascading to their roster rows. Their snapshots are left for
// PruneSnapshots to age out independently.
func (r *Repository) PruneEndedSessions(olderThan time.Duration) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE ended_at IS NOT NULL AND ended_at < ?`,
		time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
