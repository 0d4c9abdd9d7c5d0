package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"google.golang.org/protobuf/types/known/durationpb"
)

// EnsureDefaultNamespace registers the namespace the app runs in, treating
// "already exists" as success so startup is idempotent.
func EnsureDefaultNamespace(ctx context.Context, cli workflowservice.WorkflowServiceClient) error {
	_, err := cli.RegisterNamespace(ctx, &workflowservice.RegisterNamespaceRequest{
		Namespace:                        "default",
		WorkflowExecutionRetentionPeriod: durationpb.New(72 * time.Hour),
	})
	var existsErr *serviceerror.NamespaceAlreadyExists
	if errors.As(err, &existsErr) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("error registering default namespace: %s", err)
	}

	return nil
}
