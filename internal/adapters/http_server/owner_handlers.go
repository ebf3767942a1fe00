package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"reviewloop/internal/adapters/auth"
	"reviewloop/internal/domain"
)

// Owner-surface handlers. The tenant is always the caller's own,
// taken from the validated identity, never from the request.

type reviewPayload struct {
	ID         string  `json:"id"`
	BranchName string  `json:"branchname"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment,omitempty"`
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	Source     string  `json:"source"`
	Status     string  `json:"status"`
	Replied    bool    `json:"replied"`
	CreatedAt  string  `json:"created_at"`
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	limit := queryInt(r, "limit", 0)

	rs, err := h.Pages.ListReviews(r.Context(), id.TenantID, domain.PageQuery{Limit: limit, Sort: "-created_at"})
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]reviewPayload, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewPayload{
			ID:         rv.ID,
			BranchName: rv.BranchName,
			Rating:     rv.Rating,
			Comment:    rv.Comment,
			Name:       rv.Name,
			Phone:      rv.Phone,
			Email:      rv.Email,
			Source:     string(rv.Source),
			Status:     string(rv.Status),
			Replied:    rv.Replied,
			CreatedAt:  rv.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) triageReview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req struct {
		Status  string `json:"status"`
		Replied bool   `json:"replied"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	err := h.Tenants.TriageReview(r.Context(), id.TenantID, chi.URLParam(r, "id"), domain.ReviewStatus(req.Status), req.Replied)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := h.Tenants.DeleteReview(r.Context(), id.TenantID, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listBranches(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	t, err := h.Tenants.GetTenant(r.Context(), id.TenantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": t.Branches})
}

func (h *Handlers) addBranch(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req struct {
		Name       string  `json:"name"`
		Address    string  `json:"address"`
		ReviewLink *string `json:"review_link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	b, err := h.Tenants.AddBranch(r.Context(), id.TenantID, req.Name, req.Address, req.ReviewLink)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) updateBranch(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req struct {
		Name       string  `json:"name"`
		Address    string  `json:"address"`
		ReviewLink *string `json:"review_link"`
		Active     bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	err := h.Tenants.UpdateBranch(r.Context(), domain.Branch{
		ID:         chi.URLParam(r, "id"),
		TenantID:   id.TenantID,
		Name:       req.Name,
		Address:    req.Address,
		ReviewLink: req.ReviewLink,
		Active:     req.Active,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) updateGating(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req struct {
		Enabled     bool    `json:"enabled"`
		WelcomeCopy *string `json:"welcome_copy"`
		LogoURL     *string `json:"logo_url"`
		CoverURL    *string `json:"cover_url"`
		ReviewLink  *string `json:"review_link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	err := h.Tenants.UpdateGating(r.Context(), id.TenantID, domain.GatingConfig{
		Enabled:     req.Enabled,
		WelcomeCopy: req.WelcomeCopy,
		LogoURL:     req.LogoURL,
		CoverURL:    req.CoverURL,
		ReviewLink:  req.ReviewLink,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) entitlements(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	ent, err := h.Pages.Entitlements(r.Context(), id.TenantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":               ent.Plan.String(),
		"status":             ent.Status,
		"trialing":           ent.Trialing,
		"branch_cap":         ent.BranchCap,
		"review_history_cap": ent.ReviewHistoryCap,
		"analytics":          ent.Analytics,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
