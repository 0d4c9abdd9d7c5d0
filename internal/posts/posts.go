// Package posts fetches a user's recent media from the social platform.
//
// Token acquisition and refresh live elsewhere; this client only needs an
// [oauth2.TokenSource] to sign requests with.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"

	"github.com/jdholdren/ranger/internal/ranger"
)

var (
	ErrNetwork        = errors.New("network error calling media api")
	ErrProtocol       = errors.New("unexpected response from media api")
	ErrInvalidPayload = errors.New("invalid media api payload")
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: time.Second * 3,
		},
	}
}

// Shape of the media listing response.
type mediaResp struct {
	Data []struct {
		ID        string `json:"id"`
		Caption   string `json:"caption"`
		MediaURL  string `json:"media_url"`
		Permalink string `json:"permalink"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

// RecentMedia returns the user's recent posts, most recent first.
//
// Transient failures (transport errors, 5xx) are retried with backoff;
// anything else comes back typed so callers can tell a broken token from a
// broken payload.
func (c *Client) RecentMedia(ctx context.Context, src oauth2.TokenSource) ([]ranger.Post, error) {
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("error getting access token: %w", err)
	}

	endpoint := fmt.Sprintf(
		"%s/me/media?fields=id,caption,media_url,permalink,timestamp&access_token=%s",
		c.baseURL, url.QueryEscape(token.AccessToken),
	)

	var posts []ranger.Post
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, retryable, err := c.fetch(ctx, endpoint)
		if err != nil && retryable {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}

		posts = fetched
		return nil
	}); err != nil {
		return nil, err
	}

	// Reconciliation depends on feed order, so sort here rather than
	// trusting the platform.
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})

	return posts, nil
}

var captionPolicy = bluemonday.StrictPolicy()

func (c *Client) fetch(ctx context.Context, endpoint string) (_ []ranger.Post, retryable bool, _ error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrProtocol, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("%w: status code %d", ErrProtocol, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: status code %d", ErrProtocol, resp.StatusCode)
	}

	var media mediaResp
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	posts := make([]ranger.Post, 0, len(media.Data))
	for _, item := range media.Data {
		ts, err := parseTimestamp(item.Timestamp)
		if err != nil {
			return nil, false, fmt.Errorf("%w: bad timestamp %q", ErrInvalidPayload, item.Timestamp)
		}

		posts = append(posts, ranger.Post{
			ID:        item.ID,
			Caption:   sanitize(item.Caption),
			MediaURL:  item.MediaURL,
			Permalink: item.Permalink,
			Timestamp: ts,
		})
	}

	return posts, false, nil
}

// The platform has sent both RFC3339 and its zone-offset-without-colon
// variant over time.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}

	return time.Parse("2006-01-02T15:04:05-0700", s)
}

// Removes any html that snuck into a caption. Captions are control input
// for status matching, so tags are stripped rather than escaped.
func sanitize(s string) string {
	return strings.TrimSpace(captionPolicy.Sanitize(s))
}
