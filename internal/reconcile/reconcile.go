// Package reconcile derives region and trail status from a feed of posts
// and persists only real changes.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdholdren/ranger/internal/hashtag"
	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
)

// Repo is the slice of the repository reconciliation needs.
type Repo interface {
	ranger.TrailRepo
	ranger.StatusRepo
	ranger.WebhookRepo
}

type Reconciler struct {
	repo Repo
	jobs queue.Enqueuer
	now  func() time.Time
}

func New(repo Repo, jobs queue.Enqueuer) *Reconciler {
	return &Reconciler{
		repo: repo,
		jobs: jobs,
		now:  time.Now,
	}
}

// Region computes the region's state from posts (ordered most-recent-first
// by the caller) and writes it through.
//
// Writes only happen when the status or message actually changed; history
// entries and webhook jobs only happen when the status changed. Running it
// twice on the same input is a no-op the second time.
func (r *Reconciler) Region(ctx context.Context, region ranger.Region, posts []ranger.Post) error {
	// The first post carrying either hashtag decides everything; close
	// wins when a single post carries both.
	var (
		match *ranger.Post
		next  ranger.Status
	)
	for i := range posts {
		p := &posts[i]
		if hashtag.Has(p.Caption, region.CloseHashtag) {
			match, next = p, ranger.StatusClosed
			break
		}
		if hashtag.Has(p.Caption, region.OpenHashtag) {
			match, next = p, ranger.StatusOpen
			break
		}
	}
	if match == nil {
		// No new information; whatever status exists stands.
		return nil
	}

	computed := ranger.RegionStatus{
		RegionID:  region.ID,
		Status:    next,
		Message:   hashtag.Strip(match.Caption),
		PostID:    match.ID,
		ImageURL:  match.MediaURL,
		Permalink: match.Permalink,
		UpdatedAt: r.now(),
	}

	if err := r.writeRegion(ctx, region, computed); err != nil {
		return err
	}

	trails, err := r.repo.TrailsByRegion(ctx, region.ID)
	if err != nil {
		return fmt.Errorf("error fetching trails: %w", err)
	}
	for _, trail := range trails {
		want := next
		// A trail's close hashtag is only honored on the post that opened
		// the region; a region-wide close takes every trail down with it.
		if next == ranger.StatusOpen && hashtag.Has(match.Caption, trail.CloseHashtag) {
			want = ranger.StatusClosed
		}

		if err := r.writeTrail(ctx, trail, want); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reconciler) writeRegion(ctx context.Context, region ranger.Region, computed ranger.RegionStatus) error {
	stored, err := r.repo.RegionStatus(ctx, region.ID)
	if errors.Is(err, ranger.ErrNotFound) {
		stored = ranger.RegionStatus{Status: ranger.StatusUnknown}
	} else if err != nil {
		return fmt.Errorf("error fetching region status: %w", err)
	}

	if stored.Status == computed.Status && stored.Message == computed.Message {
		return nil
	}

	if err := r.repo.PutRegionStatus(ctx, computed); err != nil {
		return fmt.Errorf("error writing region status: %w", err)
	}

	if stored.Status == computed.Status {
		// Message-only change: no history entry, no webhook fan-out.
		return nil
	}

	slog.InfoContext(ctx, "region status changed",
		"region_id", region.ID,
		"from", stored.Status,
		"to", computed.Status,
		"post_id", computed.PostID,
	)

	if _, err := r.repo.AppendHistory(ctx, ranger.StatusHistory{
		RegionID:  region.ID,
		PostID:    computed.PostID,
		Status:    computed.Status,
		Message:   computed.Message,
		ImageURL:  computed.ImageURL,
		Permalink: computed.Permalink,
		CreatedAt: computed.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("error appending history: %w", err)
	}

	hooks, err := r.repo.EnabledRegionWebhooks(ctx, region.ID)
	if err != nil {
		return fmt.Errorf("error fetching region webhooks: %w", err)
	}
	for _, wh := range hooks {
		if err := r.jobs.Enqueue(ctx, queue.WebhookJob(wh.ID)); err != nil {
			return fmt.Errorf("error enqueueing webhook job: %w", err)
		}
	}

	return nil
}

func (r *Reconciler) writeTrail(ctx context.Context, trail ranger.Trail, want ranger.Status) error {
	stored, err := r.repo.TrailStatus(ctx, trail.ID)
	if errors.Is(err, ranger.ErrNotFound) {
		stored = ranger.TrailStatus{Status: ranger.StatusUnknown}
	} else if err != nil {
		return fmt.Errorf("error fetching trail status: %w", err)
	}

	if stored.Status == want {
		return nil
	}

	if err := r.repo.PutTrailStatus(ctx, ranger.TrailStatus{
		TrailID:   trail.ID,
		RegionID:  trail.RegionID,
		Status:    want,
		UpdatedAt: r.now(),
	}); err != nil {
		return fmt.Errorf("error writing trail status: %w", err)
	}

	slog.InfoContext(ctx, "trail status changed",
		"trail_id", trail.ID,
		"from", stored.Status,
		"to", want,
	)

	hooks, err := r.repo.EnabledTrailWebhooks(ctx, trail.ID)
	if err != nil {
		return fmt.Errorf("error fetching trail webhooks: %w", err)
	}
	for _, wh := range hooks {
		if err := r.jobs.Enqueue(ctx, queue.WebhookJob(wh.ID)); err != nil {
			return fmt.Errorf("error enqueueing webhook job: %w", err)
		}
	}

	return nil
}
