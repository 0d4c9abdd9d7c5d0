package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	rngerrs "github.com/jdholdren/ranger/internal/errors"
	"github.com/jdholdren/ranger/internal/ranger"
)

type WebhookResp struct {
	ID          string     `json:"id"`
	RegionID    string     `json:"region_id"`
	TrailID     *string    `json:"trail_id,omitempty"`
	Method      string     `json:"method"`
	URLTemplate string     `json:"url_template"`
	Enabled     bool       `json:"enabled"`
	RunPriority int        `json:"run_priority"`
	LastRanAt   *time.Time `json:"last_ran_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func apiWebhook(wh ranger.Webhook) WebhookResp {
	return WebhookResp{
		ID:          wh.ID,
		RegionID:    wh.RegionID,
		TrailID:     wh.TrailID,
		Method:      wh.Method,
		URLTemplate: wh.URLTemplate,
		Enabled:     wh.Enabled,
		RunPriority: wh.RunPriority,
		LastRanAt:   wh.LastRanAt,
		Error:       wh.Error,
		CreatedAt:   wh.CreatedAt,
		UpdatedAt:   wh.UpdatedAt,
	}
}

func validMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodPost
}

type PostWebhookReq struct {
	TrailID     *string `json:"trail_id"`
	Method      string  `json:"method"`
	URLTemplate string  `json:"url_template"`
	Enabled     bool    `json:"enabled"`
	RunPriority int     `json:"run_priority"`
}

func (req PostWebhookReq) Validate() error {
	var details []rngerrs.Detail
	if !validMethod(req.Method) {
		details = append(details, rngerrs.Detail{Field: "method", Error: "must be GET or POST"})
	}
	if req.URLTemplate == "" {
		details = append(details, rngerrs.Detail{Field: "url_template", Error: "is required"})
	}
	if len(details) > 0 {
		return rngerrs.E("invalid webhook", http.StatusBadRequest, details)
	}

	return nil
}

func (s Server) getWebhooks(w http.ResponseWriter, r *http.Request) error {
	hooks, err := s.repo.WebhooksByRegion(r.Context(), mux.Vars(r)["regionID"])
	if err != nil {
		return err
	}

	resp := struct {
		Webhooks []WebhookResp `json:"webhooks"`
	}{Webhooks: []WebhookResp{}}
	for _, wh := range hooks {
		resp.Webhooks = append(resp.Webhooks, apiWebhook(wh))
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (s Server) postWebhook(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		regionID = mux.Vars(r)["regionID"]
	)

	body, err := decodeValid[PostWebhookReq](r.Body)
	if err != nil {
		return err
	}

	if _, err := s.repo.Region(ctx, regionID); err != nil {
		return err
	}
	// A trail-scoped webhook has to point at a trail in the same region
	if body.TrailID != nil {
		trail, err := s.repo.Trail(ctx, *body.TrailID)
		if err != nil {
			return err
		}
		if trail.RegionID != regionID {
			return rngerrs.E(http.StatusBadRequest, "trail belongs to a different region")
		}
	}

	wh, err := s.repo.InsertWebhook(ctx, ranger.Webhook{
		RegionID:    regionID,
		TrailID:     body.TrailID,
		Method:      body.Method,
		URLTemplate: body.URLTemplate,
		Enabled:     body.Enabled,
		RunPriority: body.RunPriority,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, apiWebhook(wh))
}

type PatchWebhookReq struct {
	Method      *string `json:"method"`
	URLTemplate *string `json:"url_template"`
	Enabled     *bool   `json:"enabled"`
	RunPriority *int    `json:"run_priority"`
}

func (req PatchWebhookReq) Validate() error {
	if req.Method != nil && !validMethod(*req.Method) {
		return rngerrs.E("invalid webhook", http.StatusBadRequest, rngerrs.Detail{Field: "method", Error: "must be GET or POST"})
	}

	return nil
}

func (s Server) patchWebhook(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx       = r.Context()
		webhookID = mux.Vars(r)["webhookID"]
	)

	body, err := decodeValid[PatchWebhookReq](r.Body)
	if err != nil {
		return err
	}

	args := ranger.UpdateWebhookArgs{
		Enabled:     body.Enabled,
		RunPriority: body.RunPriority,
	}
	if body.Method != nil {
		args.Method = *body.Method
	}
	if body.URLTemplate != nil {
		args.URLTemplate = *body.URLTemplate
	}

	if err := s.repo.UpdateWebhook(ctx, webhookID, args); err != nil {
		return err
	}

	wh, err := s.repo.Webhook(ctx, webhookID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, apiWebhook(wh))
}

func (s Server) deleteWebhook(w http.ResponseWriter, r *http.Request) error {
	if err := s.repo.DeleteWebhook(r.Context(), mux.Vars(r)["webhookID"]); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, struct{}{})
}
