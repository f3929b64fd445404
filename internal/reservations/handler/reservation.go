package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"labbook/internal/reservations/service"
	"labbook/pkg/config"
	apperrors "labbook/pkg/errors"
	httputil "labbook/pkg/http"
	"labbook/pkg/interval"
	"labbook/pkg/model"
)

type ReservationHandler struct {
	service service.ReservationService
	cfg     *config.Config
}

func NewReservationHandler(svc service.ReservationService, cfg *config.Config) *ReservationHandler {
	return &ReservationHandler{
		service: svc,
		cfg:     cfg,
	}
}

// Static segments come before the :id wildcard so "pending" and "window"
// are never parsed as reservation IDs.
func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/reservations", h.Create)
	router.HandlerFunc(http.MethodGet, "/api/v1/reservations", h.List)
	router.HandlerFunc(http.MethodGet, "/api/v1/reservations/pending", h.ListPending)
	router.HandlerFunc(http.MethodGet, "/api/v1/reservations/window", h.ListForLabInWindow)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Edit)
	router.POST("/api/v1/reservations/id/:id/decision", h.Decide)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
	router.GET("/api/v1/reservations/id/:id/history", h.History)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var res model.Reservation
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	if err := h.service.Create(r.Context(), actor, &res); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, res)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var status *model.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := model.Status(s)
		status = &st
	}

	reservations, total, err := h.service.ListForActor(r.Context(), actor, status, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reservations, total, limit, offset)
}

func (h *ReservationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservations, total, err := h.service.ListPending(r.Context(), actor, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reservations, total, limit, offset)
}

func (h *ReservationHandler) ListForLabInWindow(w http.ResponseWriter, r *http.Request) {
	if _, err := httputil.ActorFromRequest(r); err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	labID := query.Get("lab_id")
	if labID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("lab_id query parameter is required"))
		return
	}

	window, err := parseWindow(query.Get("start"), query.Get("end"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservations, err := h.service.ListForLabInWindow(r.Context(), labID, window)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, reservations)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

func (h *ReservationHandler) Edit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	res, err := h.service.Edit(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

type decisionRequest struct {
	Status model.Status `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

func (h *ReservationHandler) Decide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	res, err := h.service.Decide(r.Context(), actor, ps.ByName("id"), req.Status, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Cancel(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, res)
}

func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.History(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, records)
}

func parseWindow(start, end string) (interval.Interval, error) {
	if start == "" || end == "" {
		return interval.Interval{}, apperrors.InvalidInput("start and end query parameters are required")
	}

	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return interval.Interval{}, apperrors.InvalidInput("start must be an RFC3339 timestamp")
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return interval.Interval{}, apperrors.InvalidInput("end must be an RFC3339 timestamp")
	}

	return interval.Interval{Start: startTime, End: endTime}, nil
}
