// Package worker runs the background side of the system on Temporal:
// the scheduled sync of every user and the two job workflows (user sync
// and webhook delivery) that the rest of the app enqueues.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
	usersync "github.com/jdholdren/ranger/internal/sync"
	"github.com/jdholdren/ranger/internal/webhook"
)

const TaskQueue = "shared"

// NewWorker sets up the worker with registration of workflows, activities, and schedules.
func NewWorker(ctx context.Context, repo ranger.Repository, cli client.Client, syncer *usersync.Syncer, dispatcher *webhook.Dispatcher) (worker.Worker, error) {
	a := activities{
		repo:       repo,
		jobs:       queue.NewTemporal(cli, TaskQueue),
		syncer:     syncer,
		dispatcher: dispatcher,
	}

	w := worker.New(cli, TaskQueue, worker.Options{})

	if err := registerEverything(ctx, w, a, cli); err != nil {
		return nil, fmt.Errorf("error registering workflows and activities: %w", err)
	}

	return w, nil
}

func registerEverything(ctx context.Context, w worker.Worker, a activities, cli client.Client) error {
	// Workflows
	wfs := workflows{}
	w.RegisterWorkflow(wfs.SyncAllUsers)
	w.RegisterWorkflow(wfs.SyncUser)
	w.RegisterWorkflow(wfs.RunWebhook)

	// Activities
	w.RegisterActivity(&a)

	// Schedules:
	// Sync every user's regions
	handle := cli.ScheduleClient().GetHandle(ctx, "sync_all")
	if _, err := handle.Describe(ctx); err != nil {
		handle, err = cli.ScheduleClient().Create(ctx, client.ScheduleOptions{
			ID: "sync_all",
			Spec: client.ScheduleSpec{
				Intervals: []client.ScheduleIntervalSpec{{Every: 15 * time.Minute}},
			},
			Action: &client.ScheduleWorkflowAction{
				ID:        "sync_all",
				Workflow:  wfs.SyncAllUsers,
				TaskQueue: TaskQueue,
			},
			TriggerImmediately: true,
		})
		if err != nil {
			return err
		}
	}
	handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			return &client.ScheduleUpdate{
				Schedule: &input.Description.Schedule,
			}, nil
		},
	})

	return nil
}
