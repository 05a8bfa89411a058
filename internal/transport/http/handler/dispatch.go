package handler

import (
	"encoding/json"
	"net/http"

	"github.com/condo-notify/internal/application/dispatch"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/pkg/validate"
	"github.com/condo-notify/internal/transport/http/middleware"
)

// DispatchHandler triggers template sends.
type DispatchHandler struct {
	svc dispatch.Service
}

func NewDispatchHandler(svc dispatch.Service) *DispatchHandler { return &DispatchHandler{svc: svc} }

// Dispatch sends a template to an explicit recipient list. Admin only.
func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req domain.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.send(w, r, req.Template, req.Params, req.Data, req.UserIDs)
}

// Test sends a template to the caller only, so a user can check their devices.
func (h *DispatchHandler) Test(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Template string            `json:"template" validate:"required"`
		Params   map[string]string `json:"params"`
		Data     map[string]string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.send(w, r, req.Template, testParams(req.Params, claims.UserID), req.Data, []string{claims.UserID})
}

// testParams fills the caller-identity placeholders the client left out.
func testParams(params map[string]string, userID string) map[string]string {
	out := map[string]string{"name": userID, "entity_id": "test"}
	for k, v := range params {
		out[k] = v
	}
	return out
}

func (h *DispatchHandler) send(w http.ResponseWriter, r *http.Request, template string, params, data map[string]string, userIDs []string) {
	report, err := h.svc.Send(r.Context(), template, params, userIDs, dispatch.WithData(data))
	if err == nil {
		writeJSON(w, http.StatusOK, DispatchEnvelope{Report: report})
		return
	}
	if report == nil {
		httpError(w, err)
		return
	}
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "dispatch aborted"
	}
	writeJSON(w, status, DispatchEnvelope{Report: report, Error: msg})
}
