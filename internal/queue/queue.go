// Package queue is the boundary to the at-least-once job queue.
//
// Jobs carry a group key (messages sharing it are delivered one at a time,
// in submission order) and a dedup key (near-simultaneous submissions
// collapse into one delivery). Both default to the entity id the job is
// about, which is what gives per-webhook serialized delivery.
package queue

import (
	"context"
	"encoding/json"
	"sync"
)

type Kind string

const (
	KindWebhook  Kind = "webhook"
	KindUserSync Kind = "user_sync"
)

type Job struct {
	Kind     Kind
	GroupKey string
	DedupKey string
	Payload  []byte
}

// WebhookJobPayload is the wire body of a webhook job message.
type WebhookJobPayload struct {
	WebhookID string `json:"webhookId"`
}

// UserSyncJobPayload is the wire body of a user sync job message.
type UserSyncJobPayload struct {
	UserID string `json:"userId"`
}

// WebhookJob builds the job for a single webhook delivery. The webhook id
// is both the ordering group and the dedup key, so at most one job per
// webhook is in flight and a failing webhook retries independently.
func WebhookJob(webhookID string) Job {
	payload, _ := json.Marshal(WebhookJobPayload{WebhookID: webhookID})

	return Job{
		Kind:     KindWebhook,
		GroupKey: webhookID,
		DedupKey: webhookID,
		Payload:  payload,
	}
}

func UserSyncJob(userID string) Job {
	payload, _ := json.Marshal(UserSyncJobPayload{UserID: userID})

	return Job{
		Kind:     KindUserSync,
		GroupKey: userID,
		DedupKey: userID,
		Payload:  payload,
	}
}

// Enqueuer submits jobs for later, serialized delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Memory is an in-process Enqueuer that records what was submitted.
// Mostly useful in tests; dedup applies across its whole lifetime.
type Memory struct {
	mu   sync.Mutex
	jobs []Job
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

func (m *Memory) Enqueue(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(job.Kind) + "/" + job.DedupKey
	if _, ok := m.seen[key]; ok {
		return nil
	}
	m.seen[key] = struct{}{}
	m.jobs = append(m.jobs, job)

	return nil
}

// Jobs returns a copy of everything enqueued so far.
func (m *Memory) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Job(nil), m.jobs...)
}

// Reset clears recorded jobs and the dedup window.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = nil
	m.seen = make(map[string]struct{})
}
