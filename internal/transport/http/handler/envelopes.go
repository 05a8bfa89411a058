package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/condo-notify/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type UnreadCountEnvelope struct {
	UnreadCount int `json:"unread_count"`
}

type MarkAllEnvelope struct {
	Marked int `json:"marked"`
}

// DispatchEnvelope carries the report even when some recipients failed to render.
type DispatchEnvelope struct {
	Report *domain.DispatchReport `json:"report,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// TemplateView adds the placeholder keys a caller must supply.
type TemplateView struct {
	domain.Template
	Placeholders []string `json:"placeholders"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain errors to status codes. Unknown errors are 500 with a
// generic message so store details do not leak.
func httpError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingParameter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
