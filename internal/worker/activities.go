package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
	usersync "github.com/jdholdren/ranger/internal/sync"
	"github.com/jdholdren/ranger/internal/webhook"
)

type activities struct {
	repo       ranger.Repository
	jobs       queue.Enqueuer
	syncer     *usersync.Syncer
	dispatcher *webhook.Dispatcher
}

// Instance to make the workflows a bit more readable
var acts = activities{}

// Fetches the ids of every user in the system.
func (a activities) AllUserIDs(ctx context.Context) ([]string, error) {
	ids, err := a.repo.AllUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Submits a sync job per user. Enqueueing dedups on the user id, so a user
// already mid-sync isn't queued again.
func (a activities) EnqueueUserSyncs(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if err := a.jobs.Enqueue(ctx, queue.UserSyncJob(id)); err != nil {
			return fmt.Errorf("error enqueueing sync for user %s: %w", id, err)
		}
	}

	return nil
}

// Reconciles one user's regions against their feed.
func (a activities) SyncUser(ctx context.Context, payload []byte) error {
	var msg queue.UserSyncJobPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("error decoding user sync job: %w", err)
	}

	return a.syncer.User(ctx, msg.UserID)
}

// Delivers one webhook job. The snapshot cache is scoped to the single
// attempt: a retry should see fresh state, not what a failed attempt saw.
func (a activities) DispatchWebhook(ctx context.Context, payload []byte) error {
	return a.dispatcher.Dispatch(ctx, webhook.NewSnapshotCache(), payload)
}
