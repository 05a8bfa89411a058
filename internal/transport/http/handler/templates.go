package handler

import (
	"encoding/json"
	"net/http"

	tmpl "github.com/condo-notify/internal/application/template"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/pkg/validate"
)

// TemplateHandler lists templates and lets admins upsert them.
type TemplateHandler struct {
	svc tmpl.Service
}

func NewTemplateHandler(svc tmpl.Service) *TemplateHandler { return &TemplateHandler{svc: svc} }

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	views := make([]TemplateView, len(templates))
	for i, t := range templates {
		keys := append(tmpl.Placeholders(t.TitlePattern), tmpl.Placeholders(t.BodyPattern)...)
		views[i] = TemplateView{Template: t, Placeholders: dedupe(keys)}
	}
	writeJSON(w, http.StatusOK, views)
}

// Upsert seeds the posted templates. Omitted is_active means active.
func (h *TemplateHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var inputs []domain.TemplateInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	templates := make([]domain.Template, 0, len(inputs))
	for _, in := range inputs {
		if err := validate.Struct(in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		active := true
		if in.Active != nil {
			active = *in.Active
		}
		templates = append(templates, domain.Template{
			Name:         in.Name,
			TitlePattern: in.Title,
			BodyPattern:  in.Body,
			Active:       active,
		})
	}
	res, err := h.svc.Seed(r.Context(), templates)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
