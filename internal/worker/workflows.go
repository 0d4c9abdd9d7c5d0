package worker

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

type workflows struct{}

// SyncAllUsers fans the scheduled sweep out as one sync job per user
// rather than syncing inline, so each user retries (and dedups) on their
// own.
func (workflows) SyncAllUsers(ctx workflow.Context) error {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3, // 0 is unlimited retries
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var userIDs []string
	if err := workflow.ExecuteActivity(ctx, acts.AllUserIDs).Get(ctx, &userIDs); err != nil {
		workflow.GetLogger(ctx).Error("failed to list users", "error", err)
		return err
	}

	return workflow.ExecuteActivity(ctx, acts.EnqueueUserSyncs, userIDs).Get(ctx, nil)
}

// SyncUser reconciles one user's regions. Started by id, so only one sync
// per user runs at a time.
func (workflows) SyncUser(ctx workflow.Context, payload []byte) error {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	return workflow.ExecuteActivity(ctx, acts.SyncUser, payload).Get(ctx, nil)
}

// RunWebhook delivers one webhook job. Started by webhook id, so deliveries
// for the same webhook are serialized and a failing one retries alone.
func (workflows) RunWebhook(ctx workflow.Context, payload []byte) error {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	if err := workflow.ExecuteActivity(ctx, acts.DispatchWebhook, payload).Get(ctx, nil); err != nil {
		// Out of attempts: the failed run stays in workflow history for
		// inspection, and the webhook's own error column has the details.
		workflow.GetLogger(ctx).Error("webhook delivery exhausted retries", "error", err)
		return err
	}

	return nil
}
