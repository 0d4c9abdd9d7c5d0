package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/ranger/internal/migrations"
	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
	"github.com/jdholdren/ranger/internal/sqlite"
)

// countingRepo wraps a Repo to observe how often regions get loaded.
type countingRepo struct {
	Repo
	regionFetches *int
}

func (c countingRepo) Region(ctx context.Context, id string) (ranger.Region, error) {
	*c.regionFetches++
	return c.Repo.Region(ctx, id)
}

func dispatchFixture(t *testing.T) (sqlite.Repo, ranger.Region) {
	t.Helper()

	dbx, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })
	require.NoError(t, migrations.Run(dbx))

	repo := sqlite.New(dbx)
	ctx := context.Background()

	usr, err := repo.EnsureUser(ctx, ranger.User{PlatformUserID: "ig-1"})
	require.NoError(t, err)

	region, err := repo.InsertRegion(ctx, ranger.Region{
		UserID:       usr.ID,
		Name:         "North Valley",
		OpenHashtag:  "#open",
		CloseHashtag: "#closed",
	})
	require.NoError(t, err)

	return repo, region
}

func insertHook(t *testing.T, repo sqlite.Repo, regionID, urlTemplate string) ranger.Webhook {
	t.Helper()

	wh, err := repo.InsertWebhook(context.Background(), ranger.Webhook{
		RegionID:    regionID,
		Method:      "GET",
		URLTemplate: urlTemplate,
		Enabled:     true,
	})
	require.NoError(t, err)

	return wh
}

func TestDispatch_Success(t *testing.T) {
	repo, region := dispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRegionStatus(ctx, ranger.RegionStatus{
		RegionID: region.ID,
		Status:   ranger.StatusOpen,
		Message:  "Back open!",
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	wh := insertHook(t, repo, region.ID, srv.URL+"?status={status}")

	d := NewDispatcher(repo, NewRunner())
	err := d.Dispatch(ctx, NewSnapshotCache(), queue.WebhookJob(wh.ID).Payload)
	require.NoError(t, err)

	got, err := repo.Webhook(ctx, wh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRanAt)
	assert.Empty(t, got.Error)
}

func TestDispatch_FailureRecordsAndRaises(t *testing.T) {
	repo, region := dispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRegionStatus(ctx, ranger.RegionStatus{
		RegionID: region.ID,
		Status:   ranger.StatusOpen,
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := insertHook(t, repo, region.ID, srv.URL)

	d := NewDispatcher(repo, NewRunner())
	err := d.Dispatch(ctx, NewSnapshotCache(), queue.WebhookJob(wh.ID).Payload)
	require.Error(t, err)

	// The failure is visible on the record and the error re-raised for
	// queue redelivery.
	got, err := repo.Webhook(ctx, wh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRanAt)
	assert.Contains(t, got.Error, "unexpected status code: 502")
}

func TestDispatch_MalformedBodyDropped(t *testing.T) {
	repo, _ := dispatchFixture(t)

	d := NewDispatcher(repo, NewRunner())
	assert.NoError(t, d.Dispatch(context.Background(), NewSnapshotCache(), []byte("not json")))
	assert.NoError(t, d.Dispatch(context.Background(), NewSnapshotCache(), []byte(`{"something":"else"}`)))
}

func TestDispatch_MissingWebhookDropped(t *testing.T) {
	repo, _ := dispatchFixture(t)

	d := NewDispatcher(repo, NewRunner())
	err := d.Dispatch(context.Background(), NewSnapshotCache(), queue.WebhookJob("gone-wh").Payload)
	assert.NoError(t, err)
}

func TestDispatch_RegionNotSyncedSkips(t *testing.T) {
	repo, region := dispatchFixture(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made")
	}))
	defer srv.Close()

	wh := insertHook(t, repo, region.ID, srv.URL)

	// No region status record yet: skip, don't fail, don't stamp a run.
	d := NewDispatcher(repo, NewRunner())
	require.NoError(t, d.Dispatch(ctx, NewSnapshotCache(), queue.WebhookJob(wh.ID).Payload))

	got, err := repo.Webhook(ctx, wh.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastRanAt)
}

func TestDispatch_SnapshotCachedPerInvocation(t *testing.T) {
	repo, region := dispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRegionStatus(ctx, ranger.RegionStatus{
		RegionID: region.ID,
		Status:   ranger.StatusOpen,
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	first := insertHook(t, repo, region.ID, srv.URL)
	second := insertHook(t, repo, region.ID, srv.URL)

	fetches := 0
	d := NewDispatcher(countingRepo{Repo: repo, regionFetches: &fetches}, NewRunner())

	cache := NewSnapshotCache()
	require.NoError(t, d.Dispatch(ctx, cache, queue.WebhookJob(first.ID).Payload))
	require.NoError(t, d.Dispatch(ctx, cache, queue.WebhookJob(second.ID).Payload))
	assert.Equal(t, 1, fetches)

	// A fresh invocation gets a fresh cache
	require.NoError(t, d.Dispatch(ctx, NewSnapshotCache(), queue.WebhookJob(first.ID).Payload))
	assert.Equal(t, 2, fetches)
}
