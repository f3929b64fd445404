package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"labbook/pkg/config"
	httputil "labbook/pkg/http"
)

const readinessProbeTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness. Liveness only proves the
// process answers; readiness additionally pings MongoDB.
type HealthHandler struct {
	cfg     *config.Config
	service string
}

func NewHealthHandler(cfg *config.Config, service string) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		service: service,
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/health", h.Health)
	router.HandlerFunc(http.MethodGet, "/ready", h.Ready)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: h.service,
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
	defer cancel()

	if err := h.cfg.Client.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.cfg.Log.Warn("Readiness probe failed", "error", err)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unavailable",
			Service: h.service,
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ready",
		Service: h.service,
	})
}
