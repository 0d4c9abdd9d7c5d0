package ranger

import (
	"context"
	"time"
)

// Status is the derived operational state of a region or trail.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusUnknown Status = "unknown"
)

type (
	StatusRepo interface {
		// RegionStatus returns ErrNotFound before the first sync; callers
		// treat that as StatusUnknown.
		RegionStatus(ctx context.Context, regionID string) (RegionStatus, error)
		PutRegionStatus(ctx context.Context, status RegionStatus) error
		TrailStatus(ctx context.Context, trailID string) (TrailStatus, error)
		PutTrailStatus(ctx context.Context, status TrailStatus) error
		TrailStatusesByRegion(ctx context.Context, regionID string) ([]TrailStatus, error)
		AppendHistory(ctx context.Context, entry StatusHistory) (StatusHistory, error)
		HistoryByRegion(ctx context.Context, regionID string) ([]StatusHistory, error)
		HistoryByPost(ctx context.Context, postID string) ([]StatusHistory, error)
	}

	// RegionStatus is 1:1 with a region and only ever written by
	// reconciliation, and only when the status or message changed.
	RegionStatus struct {
		RegionID  string    `db:"region_id"`
		Status    Status    `db:"status"`
		Message   string    `db:"message"`
		PostID    string    `db:"post_id"`
		ImageURL  string    `db:"image_url"`
		Permalink string    `db:"permalink"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	TrailStatus struct {
		TrailID   string    `db:"trail_id"`
		RegionID  string    `db:"region_id"`
		Status    Status    `db:"status"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// StatusHistory is append-only: one entry per region-level status
	// change, never one for a message-only update.
	StatusHistory struct {
		ID        string    `db:"id"`
		RegionID  string    `db:"region_id"`
		PostID    string    `db:"post_id"`
		Status    Status    `db:"status"`
		Message   string    `db:"message"`
		ImageURL  string    `db:"image_url"`
		Permalink string    `db:"permalink"`
		CreatedAt time.Time `db:"created_at"`
	}
)

// Post is a single entry from the owner's social feed, as handed to
// reconciliation by the sync driver. Feeds arrive most-recent-first.
type Post struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	MediaURL  string    `json:"media_url"`
	Permalink string    `json:"permalink"`
	Timestamp time.Time `json:"timestamp"`
}
