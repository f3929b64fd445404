package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"labbook/internal/labs/service"
	"labbook/pkg/config"
	apperrors "labbook/pkg/errors"
	httputil "labbook/pkg/http"
	"labbook/pkg/model"
)

type LabHandler struct {
	service service.LabService
	cfg     *config.Config
}

func NewLabHandler(svc service.LabService, cfg *config.Config) *LabHandler {
	return &LabHandler{
		service: svc,
		cfg:     cfg,
	}
}

func (h *LabHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/labs", h.Create)
	router.HandlerFunc(http.MethodGet, "/api/v1/labs", h.List)
	router.GET("/api/v1/labs/:id", h.GetByID)
	router.PATCH("/api/v1/labs/:id", h.Update)
	router.POST("/api/v1/labs/:id/activate", h.Activate)
	router.POST("/api/v1/labs/:id/deactivate", h.Deactivate)
	router.DELETE("/api/v1/labs/:id", h.Delete)
}

func (h *LabHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var lab model.Lab
	if err := json.NewDecoder(r.Body).Decode(&lab); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	if err := h.service.Create(r.Context(), actor, &lab); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, lab)
}

func (h *LabHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := httputil.ActorFromRequest(r); err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"

	labs, total, err := h.service.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, labs, total, limit, offset)
}

func (h *LabHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.ActorFromRequest(r); err != nil {
		httputil.WriteError(w, err)
		return
	}

	lab, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, lab)
}

func (h *LabHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.LabUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	lab, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, lab)
}

func (h *LabHandler) Activate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.setActive(w, r, ps, true)
}

func (h *LabHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.setActive(w, r, ps, false)
}

func (h *LabHandler) setActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params, active bool) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	lab, err := h.service.SetActive(r.Context(), actor, ps.ByName("id"), active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, lab)
}

func (h *LabHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ActorFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}
