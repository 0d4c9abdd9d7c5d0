package ranger

import (
	"context"
	"time"
)

type (
	RegionRepo interface {
		Region(ctx context.Context, id string) (Region, error)
		RegionsByUser(ctx context.Context, userID string) ([]Region, error)
		InsertRegion(ctx context.Context, region Region) (Region, error)
		UpdateRegion(ctx context.Context, id string, args UpdateRegionArgs) error
	}

	TrailRepo interface {
		Trail(ctx context.Context, id string) (Trail, error)
		TrailsByRegion(ctx context.Context, regionID string) ([]Trail, error)
		InsertTrail(ctx context.Context, trail Trail) (Trail, error)
		DeleteTrail(ctx context.Context, id string) error
	}

	// Region is a named geographic area whose aggregate state comes from
	// the owner's feed. Hashtags are stored with their leading '#'.
	Region struct {
		ID           string    `db:"id"`
		UserID       string    `db:"user_id"`
		Name         string    `db:"name"`
		OpenHashtag  string    `db:"open_hashtag"`
		CloseHashtag string    `db:"close_hashtag"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	// Trail has no open hashtag of its own: it's implicitly open unless its
	// close hashtag rides along in the post that opened the region.
	Trail struct {
		ID           string    `db:"id"`
		RegionID     string    `db:"region_id"`
		Name         string    `db:"name"`
		CloseHashtag string    `db:"close_hashtag"`
		CreatedAt    time.Time `db:"created_at"`
	}

	// Holds the optional fields for updating a region's settings.
	UpdateRegionArgs struct {
		Name         string
		OpenHashtag  string
		CloseHashtag string
	}
)
