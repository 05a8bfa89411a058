package handler

import (
	"encoding/json"
	"net/http"

	"github.com/condo-notify/internal/application/registry"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/pkg/validate"
	"github.com/condo-notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// EndpointHandler handles push endpoint registration for the calling user.
type EndpointHandler struct {
	svc registry.Service
}

func NewEndpointHandler(svc registry.Service) *EndpointHandler { return &EndpointHandler{svc: svc} }

func (h *EndpointHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RegisterEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := h.svc.Register(r.Context(), claims.UserID, req.Token, req.Platform)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	endpoints, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, endpoints)
}

func (h *EndpointHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
