package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jdholdren/ranger/internal/ranger"
)

const (
	regionNamespace = "-rgn"
	trailNamespace  = "-trl"
)

func (r Repo) Region(ctx context.Context, id string) (ranger.Region, error) {
	const q = `SELECT * FROM regions WHERE id = ?;`

	var region ranger.Region
	err := r.db.GetContext(ctx, &region, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ranger.Region{}, ranger.ErrNotFound
	}
	if err != nil {
		return ranger.Region{}, fmt.Errorf("error fetching region: %s", err)
	}

	return region, nil
}

func (r Repo) RegionsByUser(ctx context.Context, userID string) ([]ranger.Region, error) {
	const q = `SELECT * FROM regions WHERE user_id = ? ORDER BY created_at;`

	var regions []ranger.Region
	if err := r.db.SelectContext(ctx, &regions, q, userID); err != nil {
		return nil, fmt.Errorf("error fetching regions: %s", err)
	}

	return regions, nil
}

func (r Repo) InsertRegion(ctx context.Context, region ranger.Region) (ranger.Region, error) {
	region.ID = fmt.Sprintf("%s%s", uuid.NewString(), regionNamespace)

	const q = `INSERT INTO regions (id, user_id, name, open_hashtag, close_hashtag)
	VALUES (:id, :user_id, :name, :open_hashtag, :close_hashtag);`
	if _, err := r.db.NamedExecContext(ctx, q, region); err != nil {
		return ranger.Region{}, fmt.Errorf("error inserting region: %s", err)
	}

	return r.Region(ctx, region.ID)
}

func (r Repo) UpdateRegion(ctx context.Context, id string, args ranger.UpdateRegionArgs) error {
	q := sq.Update("regions")
	if args.Name != "" {
		q = q.Set("name", args.Name)
	}
	if args.OpenHashtag != "" {
		q = q.Set("open_hashtag", args.OpenHashtag)
	}
	if args.CloseHashtag != "" {
		q = q.Set("close_hashtag", args.CloseHashtag)
	}
	q = q.Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).Where(sq.Eq{"id": id})

	query, qArgs, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}
	if _, err := r.db.ExecContext(ctx, query, qArgs...); err != nil {
		return fmt.Errorf("error executing region update: %s", err)
	}

	return nil
}
