package queue

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

// Workflow names the adapter starts by. They must match the method names
// registered on the worker side.
const (
	WebhookWorkflowName  = "RunWebhook"
	UserSyncWorkflowName = "SyncUser"
)

// Temporal adapts the Enqueuer contract onto Temporal workflows.
//
// The workflow id is the job's dedup key: Temporal only runs one workflow
// per id at a time, which yields the per-group serialization, and the
// UseExisting conflict policy folds a submission into an already-running
// workflow for the same id, which is the dedup window.
type Temporal struct {
	cli       client.Client
	taskQueue string
}

func NewTemporal(cli client.Client, taskQueue string) Temporal {
	return Temporal{cli: cli, taskQueue: taskQueue}
}

func (t Temporal) Enqueue(ctx context.Context, job Job) error {
	var workflowName string
	switch job.Kind {
	case KindWebhook:
		workflowName = WebhookWorkflowName
	case KindUserSync:
		workflowName = UserSyncWorkflowName
	default:
		return fmt.Errorf("unknown job kind: %q", job.Kind)
	}

	options := client.StartWorkflowOptions{
		ID:                       fmt.Sprintf("%s-%s", job.Kind, job.DedupKey),
		TaskQueue:                t.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}
	if _, err := t.cli.ExecuteWorkflow(ctx, options, workflowName, job.Payload); err != nil {
		return fmt.Errorf("error starting %s workflow: %w", workflowName, err)
	}

	return nil
}
