package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jdholdren/ranger/internal/ranger"
)

const webhookNamespace = "-wh"

func (r Repo) Webhook(ctx context.Context, id string) (ranger.Webhook, error) {
	const q = `SELECT * FROM webhooks WHERE id = ?;`

	var wh ranger.Webhook
	err := r.db.GetContext(ctx, &wh, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.Webhook{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.Webhook{}, fmt.Errorf("error fetching webhook: %s", err)
	}

	return wh, nil
}

func (r Repo) WebhooksByRegion(ctx context.Context, regionID string) ([]ranger.Webhook, error) {
	const q = `SELECT * FROM webhooks WHERE region_id = ? ORDER BY run_priority, created_at;`

	var whs []ranger.Webhook
	if err := r.db.SelectContext(ctx, &whs, q, regionID); err != nil {
		return nil, fmt.Errorf("error fetching webhooks: %s", err)
	}

	return whs, nil
}

func (r Repo) EnabledRegionWebhooks(ctx context.Context, regionID string) ([]ranger.Webhook, error) {
	const q = `SELECT * FROM webhooks WHERE region_id = ? AND trail_id IS NULL AND enabled
	ORDER BY run_priority, created_at;`

	var whs []ranger.Webhook
	if err := r.db.SelectContext(ctx, &whs, q, regionID); err != nil {
		return nil, fmt.Errorf("error fetching region webhooks: %s", err)
	}

	return whs, nil
}

func (r Repo) EnabledTrailWebhooks(ctx context.Context, trailID string) ([]ranger.Webhook, error) {
	const q = `SELECT * FROM webhooks WHERE trail_id = ? AND enabled
	ORDER BY run_priority, created_at;`

	var whs []ranger.Webhook
	if err := r.db.SelectContext(ctx, &whs, q, trailID); err != nil {
		return nil, fmt.Errorf("error fetching trail webhooks: %s", err)
	}

	return whs, nil
}

func (r Repo) InsertWebhook(ctx context.Context, wh ranger.Webhook) (ranger.Webhook, error) {
	wh.ID = fmt.Sprintf("%s%s", uuid.NewString(), webhookNamespace)

	const q = `INSERT INTO webhooks (id, region_id, trail_id, method, url_template, enabled, run_priority)
	VALUES (:id, :region_id, :trail_id, :method, :url_template, :enabled, :run_priority);`
	if _, err := r.db.NamedExecContext(ctx, q, wh); err != nil {
		return ranger.Webhook{}, fmt.Errorf("error inserting webhook: %s", err)
	}

	return r.Webhook(ctx, wh.ID)
}

func (r Repo) UpdateWebhook(ctx context.Context, id string, args ranger.UpdateWebhookArgs) error {
	q := sq.Update("webhooks")
	if args.Method != "" {
		q = q.Set("method", args.Method)
	}
	if args.URLTemplate != "" {
		q = q.Set("url_template", args.URLTemplate)
	}
	if args.Enabled != nil {
		q = q.Set("enabled", *args.Enabled)
	}
	if args.RunPriority != nil {
		q = q.Set("run_priority", *args.RunPriority)
	}
	q = q.Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).Where(sq.Eq{"id": id})

	query, qArgs, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}
	if _, err := r.db.ExecContext(ctx, query, qArgs...); err != nil {
		return fmt.Errorf("error executing webhook update: %s", err)
	}

	return nil
}

func (r Repo) DeleteWebhook(ctx context.Context, id string) error {
	const q = `DELETE FROM webhooks WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("error deleting webhook: %s", err)
	}

	return nil
}

func (r Repo) RecordWebhookRun(ctx context.Context, id string, ranAt time.Time, runErr string) error {
	const q = `UPDATE webhooks SET last_ran_at = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, ranAt, runErr, id); err != nil {
		return fmt.Errorf("error recording webhook run: %s", err)
	}

	return nil
}
