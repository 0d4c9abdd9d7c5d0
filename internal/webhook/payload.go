package webhook

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jdholdren/ranger/internal/ranger"
)

type (
	regionPayload struct {
		RegionID  string         `json:"regionId"`
		Name      string         `json:"name"`
		Status    ranger.Status  `json:"status"`
		Message   string         `json:"message"`
		PostID    string         `json:"postId"`
		ImageURL  string         `json:"imageUrl"`
		Permalink string         `json:"permalink"`
		UpdatedAt string         `json:"updatedAt"`
		Trails    []trailPayload `json:"trails,omitempty"`
	}

	trailPayload struct {
		TrailID   string        `json:"trailId"`
		Name      string        `json:"name"`
		Status    ranger.Status `json:"status"`
		UpdatedAt string        `json:"updatedAt"`
		// Only set on trail-scoped payloads: the owning region without
		// its trail list.
		Region *regionPayload `json:"region,omitempty"`
	}
)

// buildPayload selects what the webhook sees: trail-scoped webhooks get
// their trail's status with the region folded in, region-scoped webhooks
// get the whole region snapshot including trails.
func buildPayload(wh ranger.Webhook, snap Snapshot) (any, error) {
	region := regionPayload{
		RegionID:  snap.Region.ID,
		Name:      snap.Region.Name,
		Status:    snap.Status.Status,
		Message:   snap.Status.Message,
		PostID:    snap.Status.PostID,
		ImageURL:  snap.Status.ImageURL,
		Permalink: snap.Status.Permalink,
		UpdatedAt: formatTime(snap.Status.UpdatedAt),
	}

	if wh.TrailID == nil {
		for _, trail := range snap.Trails {
			region.Trails = append(region.Trails, buildTrail(trail, snap))
		}

		return region, nil
	}

	for _, trail := range snap.Trails {
		if trail.ID != *wh.TrailID {
			continue
		}
		if _, ok := snap.TrailStatuses[trail.ID]; !ok {
			return nil, &RunError{Message: fmt.Sprintf("no status for trail %s yet", trail.ID)}
		}

		tp := buildTrail(trail, snap)
		tp.Region = &region

		return tp, nil
	}

	return nil, &RunError{Message: fmt.Sprintf("trail %s not found in region %s", *wh.TrailID, snap.Region.ID)}
}

func buildTrail(trail ranger.Trail, snap Snapshot) trailPayload {
	tp := trailPayload{
		TrailID: trail.ID,
		Name:    trail.Name,
		Status:  ranger.StatusUnknown,
	}
	if status, ok := snap.TrailStatuses[trail.ID]; ok {
		tp.Status = status.Status
		tp.UpdatedAt = formatTime(status.UpdatedAt)
	}

	return tp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// resolveURL interpolates {field} placeholders against the payload, with
// every string leaf percent-encoded and null leaves turned into empty
// strings. Dotted paths reach into nested objects.
func resolveURL(template string, rawPayload []byte) (string, error) {
	var values any
	if err := json.Unmarshal(rawPayload, &values); err != nil {
		return "", &RunError{Message: "error decoding payload for templating", Err: err}
	}
	values = encodeLeaves(values)

	resolved := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.Split(match[1:len(match)-1], ".")
		return lookup(values, path)
	})

	return resolved, nil
}

func encodeLeaves(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = encodeLeaves(val)
		}
		return v
	case []any:
		for i := range v {
			v[i] = encodeLeaves(v[i])
		}
		return v
	case string:
		return url.QueryEscape(v)
	case nil:
		return ""
	default:
		return v
	}
}

func lookup(values any, path []string) string {
	current := values
	for _, segment := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[segment]
		if !ok {
			return ""
		}
	}

	switch leaf := current.(type) {
	case string:
		return leaf
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", leaf)
	}
}
