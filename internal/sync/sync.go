// Package sync drives a single user's reconciliation pass: fetch their
// recent posts once, then reconcile every region they own against them.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/jdholdren/ranger/internal/ranger"
)

// Defaults for the region created the first time a user syncs with none
// of their own.
const (
	defaultRegionName   = "My Trails"
	defaultOpenHashtag  = "#trailsopen"
	defaultCloseHashtag = "#trailsclosed"
)

// Repo is the slice of the repository syncing needs.
type Repo interface {
	ranger.UserRepo
	ranger.RegionRepo
}

// MediaClient fetches a user's recent posts from the platform.
type MediaClient interface {
	RecentMedia(ctx context.Context, src oauth2.TokenSource) ([]ranger.Post, error)
}

// Reconciler derives and persists a region's status from its owner's posts.
type Reconciler interface {
	Region(ctx context.Context, region ranger.Region, posts []ranger.Post) error
}

type Syncer struct {
	repo  Repo
	media MediaClient
	rec   Reconciler
}

func New(repo Repo, media MediaClient, rec Reconciler) *Syncer {
	return &Syncer{
		repo:  repo,
		media: media,
		rec:   rec,
	}
}

// User reconciles all of the given user's regions against their latest
// posts. The feed is fetched once and shared across regions. A region
// that fails to reconcile doesn't stop its siblings; its error is joined
// into the return value so the sync can be retried.
func (s *Syncer) User(ctx context.Context, userID string) error {
	usr, err := s.repo.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching user: %w", err)
	}

	regions, err := s.repo.RegionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching regions: %w", err)
	}

	if len(regions) == 0 {
		region, err := s.repo.InsertRegion(ctx, ranger.Region{
			UserID:       usr.ID,
			Name:         defaultRegionName,
			OpenHashtag:  defaultOpenHashtag,
			CloseHashtag: defaultCloseHashtag,
		})
		if err != nil {
			return fmt.Errorf("error creating default region: %w", err)
		}

		slog.InfoContext(ctx, "created default region for user", "user_id", usr.ID, "region_id", region.ID)
		regions = append(regions, region)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: usr.AccessToken})
	posts, err := s.media.RecentMedia(ctx, src)
	if err != nil {
		return fmt.Errorf("error fetching posts: %w", err)
	}

	var errs []error
	for _, region := range regions {
		if err := s.rec.Region(ctx, region, posts); err != nil {
			slog.ErrorContext(ctx, "error reconciling region", "region_id", region.ID, "error", err)
			errs = append(errs, fmt.Errorf("region %s: %w", region.ID, err))
		}
	}

	return errors.Join(errs...)
}
