package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jdholdren/ranger/internal/ranger"
)

func (r Repo) Trail(ctx context.Context, id string) (ranger.Trail, error) {
	const q = `SELECT * FROM trails WHERE id = ?;`

	var trail ranger.Trail
	err := r.db.GetContext(ctx, &trail, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.Trail{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.Trail{}, fmt.Errorf("error fetching trail: %s", err)
	}

	return trail, nil
}

func (r Repo) TrailsByRegion(ctx context.Context, regionID string) ([]ranger.Trail, error) {
	const q = `SELECT * FROM trails WHERE region_id = ? ORDER BY created_at;`

	var trails []ranger.Trail
	if err := r.db.SelectContext(ctx, &trails, q, regionID); err != nil {
		return nil, fmt.Errorf("error fetching trails: %s", err)
	}

	return trails, nil
}

func (r Repo) InsertTrail(ctx context.Context, trail ranger.Trail) (ranger.Trail, error) {
	trail.ID = fmt.Sprintf("%s%s", uuid.NewString(), trailNamespace)

	const q = `INSERT INTO trails (id, region_id, name, close_hashtag)
	VALUES (:id, :region_id, :name, :close_hashtag);`
	if _, err := r.db.NamedExecContext(ctx, q, trail); err != nil {
		return ranger.Trail{}, fmt.Errorf("error inserting trail: %s", err)
	}

	return r.Trail(ctx, trail.ID)
}

// DeleteTrail removes the trail and its status record. Webhooks scoped to
// the trail stay behind soft-disabled so their run history is kept.
func (r Repo) DeleteTrail(ctx context.Context, id string) error {
	const disableQ = `UPDATE webhooks SET enabled = FALSE, updated_at = CURRENT_TIMESTAMP WHERE trail_id = ?;`
	if _, err := r.db.ExecContext(ctx, disableQ, id); err != nil {
		return fmt.Errorf("error disabling trail webhooks: %s", err)
	}

	const statusQ = `DELETE FROM trail_statuses WHERE trail_id = ?;`
	if _, err := r.db.ExecContext(ctx, statusQ, id); err != nil {
		return fmt.Errorf("error deleting trail status: %s", err)
	}

	const q = `DELETE FROM trails WHERE id = ?;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("error deleting trail: %s", err)
	}

	return nil
}
