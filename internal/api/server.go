package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jdholdren/ranger/internal/queue"
	"github.com/jdholdren/ranger/internal/ranger"
)

type (
	// Server is the management API: region settings, trails, webhooks, and
	// read access to derived statuses and history.
	Server struct {
		*http.Server

		// Status reads dominate traffic, so responses are held briefly
		// rather than hitting the repository per poll.
		statusRespCache *expirable.LRU[string, RegionStatusResp]

		repo ranger.Repository
		jobs queue.Enqueuer
	}

	ServerConfig struct {
		Port       int
		CorsHeader string
	}
)

func NewServer(config ServerConfig, repo ranger.Repository, jobs queue.Enqueuer) *Server {
	r := errRouter{Router: mux.NewRouter()}

	srvr := Server{
		statusRespCache: expirable.NewLRU[string, RegionStatusResp](1024, nil, 30*time.Second),
		repo:            repo,
		jobs:            jobs,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsHeader}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(accessLogMiddleware) // Log everything

	// Region settings and derived state
	r.HandleFuncE("/api/regions/{regionID}", srvr.getRegion).Methods(http.MethodGet)
	r.HandleFuncE("/api/regions/{regionID}", srvr.putRegion).Methods(http.MethodPut)
	r.HandleFuncE("/api/regions/{regionID}/status", srvr.getRegionStatus).Methods(http.MethodGet)
	r.HandleFuncE("/api/regions/{regionID}/history", srvr.getRegionHistory).Methods(http.MethodGet)

	// Trail management
	r.HandleFuncE("/api/regions/{regionID}/trails", srvr.postTrail).Methods(http.MethodPost)
	r.HandleFuncE("/api/trails/{trailID}", srvr.deleteTrail).Methods(http.MethodDelete)

	// Webhook management
	r.HandleFuncE("/api/regions/{regionID}/webhooks", srvr.getWebhooks).Methods(http.MethodGet)
	r.HandleFuncE("/api/regions/{regionID}/webhooks", srvr.postWebhook).Methods(http.MethodPost)
	r.HandleFuncE("/api/webhooks/{webhookID}", srvr.patchWebhook).Methods(http.MethodPatch)
	r.HandleFuncE("/api/webhooks/{webhookID}", srvr.deleteWebhook).Methods(http.MethodDelete)

	// Manual sync trigger
	r.HandleFuncE("/api/users/{userID}/sync", srvr.postUserSync).Methods(http.MethodPost)

	slog.Debug("configured ranger server", "port", config.Port)

	return &srvr
}
