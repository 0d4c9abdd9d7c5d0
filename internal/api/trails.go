package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	rngerrs "github.com/jdholdren/ranger/internal/errors"
	"github.com/jdholdren/ranger/internal/hashtag"
	"github.com/jdholdren/ranger/internal/ranger"
)

type TrailResp struct {
	ID           string    `json:"id"`
	RegionID     string    `json:"region_id"`
	Name         string    `json:"name"`
	CloseHashtag string    `json:"close_hashtag"`
	CreatedAt    time.Time `json:"created_at"`
}

func apiTrail(trail ranger.Trail) TrailResp {
	return TrailResp{
		ID:           trail.ID,
		RegionID:     trail.RegionID,
		Name:         trail.Name,
		CloseHashtag: trail.CloseHashtag,
		CreatedAt:    trail.CreatedAt,
	}
}

type PostTrailReq struct {
	Name         string `json:"name"`
	CloseHashtag string `json:"close_hashtag"`
}

func (req PostTrailReq) Validate() error {
	var details []rngerrs.Detail
	if req.Name == "" {
		details = append(details, rngerrs.Detail{Field: "name", Error: "is required"})
	}
	if req.CloseHashtag == "" {
		details = append(details, rngerrs.Detail{Field: "close_hashtag", Error: "is required"})
	}
	if len(details) > 0 {
		return rngerrs.E("invalid trail", http.StatusBadRequest, details)
	}

	return nil
}

func (s Server) postTrail(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		regionID = mux.Vars(r)["regionID"]
	)

	body, err := decodeValid[PostTrailReq](r.Body)
	if err != nil {
		return err
	}

	// The region has to exist before hanging a trail off of it
	if _, err := s.repo.Region(ctx, regionID); err != nil {
		return err
	}

	trail, err := s.repo.InsertTrail(ctx, ranger.Trail{
		RegionID:     regionID,
		Name:         body.Name,
		CloseHashtag: hashtag.Normalize(body.CloseHashtag),
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, apiTrail(trail))
}

func (s Server) deleteTrail(w http.ResponseWriter, r *http.Request) error {
	if err := s.repo.DeleteTrail(r.Context(), mux.Vars(r)["trailID"]); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, struct{}{})
}
