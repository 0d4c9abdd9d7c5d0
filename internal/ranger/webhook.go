package ranger

import (
	"context"
	"time"
)

type (
	WebhookRepo interface {
		Webhook(ctx context.Context, id string) (Webhook, error)
		WebhooksByRegion(ctx context.Context, regionID string) ([]Webhook, error)
		// EnabledRegionWebhooks returns enabled webhooks with no trail
		// scope, ordered by run priority.
		EnabledRegionWebhooks(ctx context.Context, regionID string) ([]Webhook, error)
		EnabledTrailWebhooks(ctx context.Context, trailID string) ([]Webhook, error)
		InsertWebhook(ctx context.Context, wh Webhook) (Webhook, error)
		UpdateWebhook(ctx context.Context, id string, args UpdateWebhookArgs) error
		DeleteWebhook(ctx context.Context, id string) error
		// RecordWebhookRun stamps the outcome of a delivery attempt. An
		// empty runErr means the last run succeeded.
		RecordWebhookRun(ctx context.Context, id string, ranAt time.Time, runErr string) error
	}

	// Webhook is an outbound HTTP notification. A nil TrailID means the
	// webhook is region-scoped.
	Webhook struct {
		ID          string     `db:"id"`
		RegionID    string     `db:"region_id"`
		TrailID     *string    `db:"trail_id"`
		Method      string     `db:"method"`
		URLTemplate string     `db:"url_template"`
		Enabled     bool       `db:"enabled"`
		RunPriority int        `db:"run_priority"`
		LastRanAt   *time.Time `db:"last_ran_at"`
		Error       string     `db:"error"`
		CreatedAt   time.Time  `db:"created_at"`
		UpdatedAt   time.Time  `db:"updated_at"`
	}

	// Holds the optional fields for updating a webhook. Pointer fields
	// distinguish "leave alone" from "set to zero value".
	UpdateWebhookArgs struct {
		Method      string
		URLTemplate string
		Enabled     *bool
		RunPriority *int
	}
)
