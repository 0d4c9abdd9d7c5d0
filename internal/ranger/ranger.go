// Package ranger holds the domain types for the trail status service.
//
// A region's open/closed state is derived from a user's social feed: posts
// carrying the region's hashtags flip the region (and its trails) between
// open and closed, and webhooks notify the outside world of transitions.
package ranger

import "errors"

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
)

// Repository is the full persistence surface the service needs.
//
// It's split per aggregate so consumers can ask for only the slice they use.
type Repository interface {
	UserRepo
	RegionRepo
	TrailRepo
	StatusRepo
	WebhookRepo
}
