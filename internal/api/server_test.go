package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
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

type fixture struct {
	repo   sqlite.Repo
	jobs   *queue.Memory
	srv    *httptest.Server
	region ranger.Region
	user   ranger.User
}

func setup(t *testing.T) fixture {
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

	jobs := queue.NewMemory()
	srvr := NewServer(ServerConfig{Port: 0, CorsHeader: "*"}, repo, jobs)

	srv := httptest.NewServer(srvr.Handler)
	t.Cleanup(srv.Close)

	return fixture{repo: repo, jobs: jobs, srv: srv, region: region, user: usr}
}

func (f fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		byts, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(byts)
	}

	req, err := http.NewRequest(method, f.srv.URL+path, rdr)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeResp[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestPutRegion(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPut, "/api/regions/"+f.region.ID, PutRegionReq{
		Name:         "South Ridge",
		OpenHashtag:  "ridgeopen", // no leading '#'
		CloseHashtag: "#ridgeclosed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResp[RegionResp](t, resp)
	assert.Equal(t, "South Ridge", got.Name)
	assert.Equal(t, "#ridgeopen", got.OpenHashtag)
	assert.Equal(t, "#ridgeclosed", got.CloseHashtag)
}

func TestPutRegion_Invalid(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPut, "/api/regions/"+f.region.ID, PutRegionReq{Name: "South Ridge"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRegionStatus_BeforeFirstSync(t *testing.T) {
	f := setup(t)

	trail, err := f.repo.InsertTrail(context.Background(), ranger.Trail{
		RegionID:     f.region.ID,
		Name:         "Ridge Line",
		CloseHashtag: "#ridgeclosed",
	})
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/regions/"+f.region.ID+"/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResp[RegionStatusResp](t, resp)
	assert.Equal(t, ranger.StatusUnknown, got.Status)
	assert.Nil(t, got.UpdatedAt)
	require.Len(t, got.Trails, 1)
	assert.Equal(t, trail.ID, got.Trails[0].TrailID)
	assert.Equal(t, ranger.StatusUnknown, got.Trails[0].Status)
}

func TestGetRegionStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.repo.PutRegionStatus(ctx, ranger.RegionStatus{
		RegionID: f.region.ID,
		Status:   ranger.StatusOpen,
		Message:  "Back open!",
		PostID:   "post-1",
	}))

	resp := f.do(t, http.MethodGet, "/api/regions/"+f.region.ID+"/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResp[RegionStatusResp](t, resp)
	assert.Equal(t, ranger.StatusOpen, got.Status)
	assert.Equal(t, "Back open!", got.Message)
	require.NotNil(t, got.UpdatedAt)

	// Responses are cached briefly, so a write right after doesn't show
	require.NoError(t, f.repo.PutRegionStatus(ctx, ranger.RegionStatus{
		RegionID: f.region.ID,
		Status:   ranger.StatusClosed,
	}))
	resp = f.do(t, http.MethodGet, "/api/regions/"+f.region.ID+"/status", nil)
	got = decodeResp[RegionStatusResp](t, resp)
	assert.Equal(t, ranger.StatusOpen, got.Status)
}

func TestGetRegionStatus_UnknownRegion(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodGet, "/api/regions/nope/status", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRegionHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.repo.AppendHistory(ctx, ranger.StatusHistory{
		RegionID: f.region.ID,
		PostID:   "post-1",
		Status:   ranger.StatusOpen,
		Message:  "Back open!",
	})
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/regions/"+f.region.ID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResp[HistoryResp](t, resp)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "post-1", got.Items[0].PostID)
	assert.Equal(t, ranger.StatusOpen, got.Items[0].Status)
}

func TestTrails(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/regions/"+f.region.ID+"/trails", PostTrailReq{
		Name:         "Ridge Line",
		CloseHashtag: "ridgeclosed",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	trail := decodeResp[TrailResp](t, resp)
	assert.Equal(t, "#ridgeclosed", trail.CloseHashtag)

	resp = f.do(t, http.MethodDelete, "/api/trails/"+trail.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := f.repo.Trail(context.Background(), trail.ID)
	assert.ErrorIs(t, err, ranger.ErrNotFound)
}

func TestWebhooks(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/regions/"+f.region.ID+"/webhooks", PostWebhookReq{
		Method:      "POST",
		URLTemplate: "https://example.com/notify?status={status}",
		Enabled:     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	wh := decodeResp[WebhookResp](t, resp)

	// Disable it
	enabled := false
	resp = f.do(t, http.MethodPatch, "/api/webhooks/"+wh.ID, PatchWebhookReq{Enabled: &enabled})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeResp[WebhookResp](t, resp).Enabled)

	resp = f.do(t, http.MethodGet, "/api/regions/"+f.region.ID+"/webhooks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeResp[struct {
		Webhooks []WebhookResp `json:"webhooks"`
	}](t, resp)
	require.Len(t, list.Webhooks, 1)

	resp = f.do(t, http.MethodDelete, "/api/webhooks/"+wh.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostWebhook_TrailInOtherRegion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.repo.InsertRegion(ctx, ranger.Region{UserID: f.user.ID, Name: "Other"})
	require.NoError(t, err)
	trail, err := f.repo.InsertTrail(ctx, ranger.Trail{RegionID: other.ID, Name: "Elsewhere"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/api/regions/"+f.region.ID+"/webhooks", PostWebhookReq{
		TrailID:     &trail.ID,
		Method:      "GET",
		URLTemplate: "https://example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostWebhook_BadMethod(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/regions/"+f.region.ID+"/webhooks", PostWebhookReq{
		Method:      "DELETE",
		URLTemplate: "https://example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostUserSync(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/users/%s/sync", f.user.ID), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	jobs := f.jobs.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, queue.KindUserSync, jobs[0].Kind)
	assert.Equal(t, f.user.ID, jobs[0].DedupKey)

	resp = f.do(t, http.MethodPost, "/api/users/nope/sync", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
