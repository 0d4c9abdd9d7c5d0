package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	rngerrs "github.com/jdholdren/ranger/internal/errors"
	"github.com/jdholdren/ranger/internal/hashtag"
	"github.com/jdholdren/ranger/internal/ranger"
)

type RegionResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OpenHashtag  string    `json:"open_hashtag"`
	CloseHashtag string    `json:"close_hashtag"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func apiRegion(region ranger.Region) RegionResp {
	return RegionResp{
		ID:           region.ID,
		Name:         region.Name,
		OpenHashtag:  region.OpenHashtag,
		CloseHashtag: region.CloseHashtag,
		CreatedAt:    region.CreatedAt,
		UpdatedAt:    region.UpdatedAt,
	}
}

func (s Server) getRegion(w http.ResponseWriter, r *http.Request) error {
	region, err := s.repo.Region(r.Context(), mux.Vars(r)["regionID"])
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, apiRegion(region))
}

type PutRegionReq struct {
	Name         string `json:"name"`
	OpenHashtag  string `json:"open_hashtag"`
	CloseHashtag string `json:"close_hashtag"`
}

func (req PutRegionReq) Validate() error {
	var details []rngerrs.Detail
	if req.Name == "" {
		details = append(details, rngerrs.Detail{Field: "name", Error: "is required"})
	}
	if req.OpenHashtag == "" {
		details = append(details, rngerrs.Detail{Field: "open_hashtag", Error: "is required"})
	}
	if req.CloseHashtag == "" {
		details = append(details, rngerrs.Detail{Field: "close_hashtag", Error: "is required"})
	}
	if len(details) > 0 {
		return rngerrs.E("invalid region settings", http.StatusBadRequest, details)
	}

	return nil
}

func (s Server) putRegion(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		regionID = mux.Vars(r)["regionID"]
	)

	body, err := decodeValid[PutRegionReq](r.Body)
	if err != nil {
		return err
	}

	// Hashtags are stored with their leading '#', however they arrived.
	if err := s.repo.UpdateRegion(ctx, regionID, ranger.UpdateRegionArgs{
		Name:         body.Name,
		OpenHashtag:  hashtag.Normalize(body.OpenHashtag),
		CloseHashtag: hashtag.Normalize(body.CloseHashtag),
	}); err != nil {
		return err
	}

	region, err := s.repo.Region(ctx, regionID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, apiRegion(region))
}

type (
	RegionStatusResp struct {
		RegionID  string            `json:"region_id"`
		Status    ranger.Status     `json:"status"`
		Message   string            `json:"message"`
		PostID    string            `json:"post_id,omitempty"`
		ImageURL  string            `json:"image_url,omitempty"`
		Permalink string            `json:"permalink,omitempty"`
		UpdatedAt *time.Time        `json:"updated_at,omitempty"`
		Trails    []TrailStatusResp `json:"trails"`
	}

	TrailStatusResp struct {
		TrailID   string        `json:"trail_id"`
		Name      string        `json:"name"`
		Status    ranger.Status `json:"status"`
		UpdatedAt *time.Time    `json:"updated_at,omitempty"`
	}
)

func (s Server) getRegionStatus(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		regionID = mux.Vars(r)["regionID"]
	)

	if resp, ok := s.statusRespCache.Get(regionID); ok {
		return writeJSON(w, http.StatusOK, resp)
	}

	region, err := s.repo.Region(ctx, regionID)
	if err != nil {
		return err
	}

	resp := RegionStatusResp{
		RegionID: region.ID,
		Status:   ranger.StatusUnknown,
		Trails:   []TrailStatusResp{},
	}

	// A region that has never synced reads as unknown, not as missing.
	status, err := s.repo.RegionStatus(ctx, regionID)
	if err != nil && !errors.Is(err, ranger.ErrNotFound) {
		return err
	}
	if err == nil {
		resp.Status = status.Status
		resp.Message = status.Message
		resp.PostID = status.PostID
		resp.ImageURL = status.ImageURL
		resp.Permalink = status.Permalink
		resp.UpdatedAt = &status.UpdatedAt
	}

	trails, err := s.repo.TrailsByRegion(ctx, regionID)
	if err != nil {
		return err
	}
	trailStatuses, err := s.repo.TrailStatusesByRegion(ctx, regionID)
	if err != nil {
		return err
	}
	statusByTrail := make(map[string]ranger.TrailStatus, len(trailStatuses))
	for _, ts := range trailStatuses {
		statusByTrail[ts.TrailID] = ts
	}

	for _, trail := range trails {
		tr := TrailStatusResp{
			TrailID: trail.ID,
			Name:    trail.Name,
			Status:  ranger.StatusUnknown,
		}
		if ts, ok := statusByTrail[trail.ID]; ok {
			tr.Status = ts.Status
			tr.UpdatedAt = &ts.UpdatedAt
		}

		resp.Trails = append(resp.Trails, tr)
	}

	s.statusRespCache.Add(regionID, resp)

	return writeJSON(w, http.StatusOK, resp)
}

type (
	HistoryResp struct {
		Items []HistoryEntryResp `json:"items"`
	}

	HistoryEntryResp struct {
		ID        string        `json:"id"`
		PostID    string        `json:"post_id"`
		Status    ranger.Status `json:"status"`
		Message   string        `json:"message"`
		ImageURL  string        `json:"image_url,omitempty"`
		Permalink string        `json:"permalink,omitempty"`
		CreatedAt time.Time     `json:"created_at"`
	}
)

func (s Server) getRegionHistory(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		regionID = mux.Vars(r)["regionID"]
	)

	// 404 for a region that doesn't exist, empty history for one that does.
	if _, err := s.repo.Region(ctx, regionID); err != nil {
		return err
	}

	entries, err := s.repo.HistoryByRegion(ctx, regionID)
	if err != nil {
		return err
	}

	resp := HistoryResp{Items: []HistoryEntryResp{}}
	for _, entry := range entries {
		resp.Items = append(resp.Items, HistoryEntryResp{
			ID:        entry.ID,
			PostID:    entry.PostID,
			Status:    entry.Status,
			Message:   entry.Message,
			ImageURL:  entry.ImageURL,
			Permalink: entry.Permalink,
			CreatedAt: entry.CreatedAt,
		})
	}

	return writeJSON(w, http.StatusOK, resp)
}
