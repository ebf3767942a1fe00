package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reviewloop/internal/domain"
)

func (h *Handlers) listTenants(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Tenants.ListTenants(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	type item struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Slug     string `json:"slug"`
		PlanKey  string `json:"plan_key"`
		Status   string `json:"status"`
		Branches int    `json:"branches"`
	}
	now := time.Now()
	out := make([]item, 0, len(ts))
	for i := range ts {
		t := &ts[i]
		out = append(out, item{
			ID:       t.ID,
			Name:     t.Name,
			Slug:     t.Slug,
			PlanKey:  t.PlanKey,
			Status:   string(domain.DeriveStatus(t.SubscriptionActive, t.SubscriptionEndsAt, now)),
			Branches: len(t.Branches),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) createTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	t, err := h.Tenants.CreateTenant(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": t.ID, "name": t.Name, "slug": t.Slug})
}

func (h *Handlers) setPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanKey string     `json:"plan_key"`
		Active  bool       `json:"active"`
		EndsAt  *time.Time `json:"ends_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	if err := h.Tenants.SetPlan(r.Context(), chi.URLParam(r, "id"), req.PlanKey, req.Active, req.EndsAt); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Tenants.Settings(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) putSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WidgetPhone     *string `json:"widget_phone"`
		DemoEnabled     bool    `json:"demo_enabled"`
		DemoSlotMinutes int     `json:"demo_slot_minutes"`
		NotifyURL       *string `json:"notify_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	err := h.Tenants.SaveSettings(r.Context(), domain.Settings{
		WidgetPhone:     req.WidgetPhone,
		DemoEnabled:     req.DemoEnabled,
		DemoSlotMinutes: req.DemoSlotMinutes,
		NotifyURL:       req.NotifyURL,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) analytics(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Analytics.Aggregate(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
