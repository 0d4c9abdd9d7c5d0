package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jdholdren/ranger/internal/ranger"
)

const historyNamespace = "-hist"

func (r Repo) RegionStatus(ctx context.Context, regionID string) (ranger.RegionStatus, error) {
	const q = `SELECT * FROM region_statuses WHERE region_id = ?;`

	var status ranger.RegionStatus
	err := r.db.GetContext(ctx, &status, q, regionID)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.RegionStatus{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.RegionStatus{}, fmt.Errorf("error fetching region status: %s", err)
	}

	return status, nil
}

// PutRegionStatus replaces the whole record. Reconciliation is the only
// writer for a given region, so a plain upsert is safe here.
func (r Repo) PutRegionStatus(ctx context.Context, status ranger.RegionStatus) error {
	const q = `INSERT INTO region_statuses (region_id, status, message, post_id, image_url, permalink, updated_at)
	VALUES (:region_id, :status, :message, :post_id, :image_url, :permalink, :updated_at)
	ON CONFLICT(region_id) DO UPDATE SET
		status = excluded.status,
		message = excluded.message,
		post_id = excluded.post_id,
		image_url = excluded.image_url,
		permalink = excluded.permalink,
		updated_at = excluded.updated_at;`
	if _, err := r.db.NamedExecContext(ctx, q, status); err != nil {
		return fmt.Errorf("error putting region status: %s", err)
	}

	return nil
}

func (r Repo) TrailStatus(ctx context.Context, trailID string) (ranger.TrailStatus, error) {
	const q = `SELECT * FROM trail_statuses WHERE trail_id = ?;`

	var status ranger.TrailStatus
	err := r.db.GetContext(ctx, &status, q, trailID)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.TrailStatus{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.TrailStatus{}, fmt.Errorf("error fetching trail status: %s", err)
	}

	return status, nil
}

func (r Repo) PutTrailStatus(ctx context.Context, status ranger.TrailStatus) error {
	const q = `INSERT INTO trail_statuses (trail_id, region_id, status, updated_at)
	VALUES (:trail_id, :region_id, :status, :updated_at)
	ON CONFLICT(trail_id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at;`
	if _, err := r.db.NamedExecContext(ctx, q, status); err != nil {
		return fmt.Errorf("error putting trail status: %s", err)
	}

	return nil
}

func (r Repo) TrailStatusesByRegion(ctx context.Context, regionID string) ([]ranger.TrailStatus, error) {
	const q = `SELECT * FROM trail_statuses WHERE region_id = ?;`

	var statuses []ranger.TrailStatus
	if err := r.db.SelectContext(ctx, &statuses, q, regionID); err != nil {
		return nil, fmt.Errorf("error fetching trail statuses: %s", err)
	}

	return statuses, nil
}

func (r Repo) AppendHistory(ctx context.Context, entry ranger.StatusHistory) (ranger.StatusHistory, error) {
	entry.ID = fmt.Sprintf("%s%s", uuid.NewString(), historyNamespace)

	const q = `INSERT INTO status_history (id, region_id, post_id, status, message, image_url, permalink, created_at)
	VALUES (:id, :region_id, :post_id, :status, :message, :image_url, :permalink, :created_at);`
	if _, err := r.db.NamedExecContext(ctx, q, entry); err != nil {
		return ranger.StatusHistory{}, fmt.Errorf("error appending history: %s", err)
	}

	return entry, nil
}

func (r Repo) HistoryByRegion(ctx context.Context, regionID string) ([]ranger.StatusHistory, error) {
	const q = `SELECT * FROM status_history WHERE region_id = ? ORDER BY created_at DESC;`

	var entries []ranger.StatusHistory
	if err := r.db.SelectContext(ctx, &entries, q, regionID); err != nil {
		return nil, fmt.Errorf("error fetching history: %s", err)
	}

	return entries, nil
}

func (r Repo) HistoryByPost(ctx context.Context, postID string) ([]ranger.StatusHistory, error) {
	const q = `SELECT * FROM status_history WHERE post_id = ? ORDER BY created_at DESC;`

	var entries []ranger.StatusHistory
	if err := r.db.SelectContext(ctx, &entries, q, postID); err != nil {
		return nil, fmt.Errorf("error fetching history: %s", err)
	}

	return entries, nil
}
