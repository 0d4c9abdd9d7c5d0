// Package webhook builds and delivers outbound status notifications.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jdholdren/ranger/internal/ranger"
)

// RunError is a delivery failure with a message fit for the webhook's
// error field. The runner never retries; redelivery is the queue's job.
type RunError struct {
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}

	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Result is what a successful delivery looks like, for logging.
type Result struct {
	StatusCode int
	URL        string
}

// Snapshot is the current state of one region and its trails, resolved by
// the dispatcher before the runner is invoked.
type Snapshot struct {
	Region        ranger.Region
	Status        ranger.RegionStatus
	Trails        []ranger.Trail
	TrailStatuses map[string]ranger.TrailStatus
}

type Runner struct {
	client *http.Client
}

func NewRunner() *Runner {
	return &Runner{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Run resolves the webhook's URL template against the status payload and
// performs the HTTP call. Any non-2xx response, transport error, or missing
// trail status comes back as a *RunError.
func (r *Runner) Run(ctx context.Context, wh ranger.Webhook, snap Snapshot) (Result, error) {
	payload, err := buildPayload(wh, snap)
	if err != nil {
		return Result{}, err
	}

	// The body keeps the raw JSON; only URL interpolation sees the
	// percent-encoded variant.
	raw, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &RunError{Message: "error encoding payload", Err: err}
	}

	url, err := resolveURL(wh.URLTemplate, raw)
	if err != nil {
		return Result{}, err
	}

	var body io.Reader
	method := strings.ToUpper(wh.Method)
	if method == http.MethodPost {
		// Consumers have always received the POST payload as a JSON
		// string, serialized twice; changing that would break them.
		outer, err := json.Marshal(string(raw))
		if err != nil {
			return Result{}, &RunError{Message: "error encoding request body", Err: err}
		}
		body = bytes.NewReader(outer)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Result{}, &RunError{Message: "error building request", Err: err}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, &RunError{Message: "error calling webhook", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse

	if resp.StatusCode/100 != 2 {
		return Result{}, &RunError{Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode)}
	}

	return Result{StatusCode: resp.StatusCode, URL: url}, nil
}
