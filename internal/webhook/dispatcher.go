package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
)

// Repo is the slice of the repository dispatching needs.
type Repo interface {
	ranger.RegionRepo
	ranger.TrailRepo
	ranger.StatusRepo
	ranger.WebhookRepo
}

// SnapshotCache memoizes region snapshots for the duration of one
// dispatcher invocation. Callers create one per invocation and throw it
// away afterwards so the cache scope is always explicit.
type SnapshotCache struct {
	cache *lru.Cache[string, Snapshot]
}

func NewSnapshotCache() *SnapshotCache {
	cache, _ := lru.New[string, Snapshot](64)
	return &SnapshotCache{cache: cache}
}

type Dispatcher struct {
	repo   Repo
	runner *Runner
	now    func() time.Time
}

func NewDispatcher(repo Repo, runner *Runner) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		runner: runner,
		now:    time.Now,
	}
}

// Dispatch processes a single webhook job message.
//
// A nil return means the message is done with: either delivered, or dropped
// because retrying could never help (malformed body, webhook gone) or
// skipped because the region hasn't synced yet. A non-nil return means the
// attempt failed and the message should be redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, cache *SnapshotCache, body []byte) error {
	var msg queue.WebhookJobPayload
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.ErrorContext(ctx, "dropping malformed webhook job", "error", err, "body", string(body))
		return nil
	}
	if msg.WebhookID == "" {
		slog.ErrorContext(ctx, "dropping webhook job with no webhook id", "body", string(body))
		return nil
	}

	wh, err := d.repo.Webhook(ctx, msg.WebhookID)
	if errors.Is(err, ranger.ErrNotFound) {
		slog.WarnContext(ctx, "dropping job for deleted webhook", "webhook_id", msg.WebhookID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error fetching webhook: %w", err)
	}

	snap, ready, err := d.snapshot(ctx, cache, wh.RegionID)
	if err != nil {
		return err
	}
	if !ready {
		// Not a failure: the region just hasn't produced a status yet.
		slog.InfoContext(ctx, "region not yet synced, skipping webhook", "webhook_id", wh.ID, "region_id", wh.RegionID)
		return nil
	}

	result, runErr := d.runner.Run(ctx, wh, snap)
	ranAt := d.now()
	if runErr != nil {
		if err := d.repo.RecordWebhookRun(ctx, wh.ID, ranAt, runErr.Error()); err != nil {
			slog.ErrorContext(ctx, "error recording failed webhook run", "webhook_id", wh.ID, "error", err)
		}

		// Re-raise so the queue redelivers this message.
		return fmt.Errorf("error running webhook %s: %w", wh.ID, runErr)
	}

	if err := d.repo.RecordWebhookRun(ctx, wh.ID, ranAt, ""); err != nil {
		return fmt.Errorf("error recording webhook run: %w", err)
	}

	slog.InfoContext(ctx, "webhook delivered",
		"webhook_id", wh.ID,
		"status_code", result.StatusCode,
		"url", result.URL,
	)

	return nil
}

// snapshot loads the region's current state, caching per invocation so
// messages sharing a region don't repeat lookups. The bool is false when
// the region has no status record yet.
func (d *Dispatcher) snapshot(ctx context.Context, cache *SnapshotCache, regionID string) (Snapshot, bool, error) {
	if snap, ok := cache.cache.Get(regionID); ok {
		return snap, true, nil
	}

	region, err := d.repo.Region(ctx, regionID)
	if errors.Is(err, ranger.ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("error fetching region: %w", err)
	}

	status, err := d.repo.RegionStatus(ctx, regionID)
	if errors.Is(err, ranger.ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("error fetching region status: %w", err)
	}

	trails, err := d.repo.TrailsByRegion(ctx, regionID)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("error fetching trails: %w", err)
	}

	trailStatuses, err := d.repo.TrailStatusesByRegion(ctx, regionID)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("error fetching trail statuses: %w", err)
	}
	statusByTrail := make(map[string]ranger.TrailStatus, len(trailStatuses))
	for _, ts := range trailStatuses {
		statusByTrail[ts.TrailID] = ts
	}

	snap := Snapshot{
		Region:        region,
		Status:        status,
		Trails:        trails,
		TrailStatuses: statusByTrail,
	}
	cache.cache.Add(regionID, snap)

	return snap, true, nil
}
