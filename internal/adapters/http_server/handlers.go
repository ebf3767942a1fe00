package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewloop/internal/adapters/auth"
	"reviewloop/internal/app"
	"reviewloop/internal/domain"
)

type Handlers struct {
	Pages       *app.PageService
	Submissions *app.SubmissionService
	Tenants     *app.TenantService
	Analytics   *app.AnalyticsService
	Tokens      *auth.JWT
}

type problem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	// public review page, keyed by tenant slug
	s.mux.Get("/v1/pages/{slug}", h.getPage)
	s.mux.Post("/v1/pages/{slug}/submissions", h.submit)

	// owner console
	s.mux.Group(func(r chi.Router) {
		r.Use(requireRole(h.Tokens, auth.RoleOwner))
		r.Get("/v1/reviews", h.listReviews)
		r.Patch("/v1/reviews/{id}", h.triageReview)
		r.Delete("/v1/reviews/{id}", h.deleteReview)
		r.Get("/v1/branches", h.listBranches)
		r.Post("/v1/branches", h.addBranch)
		r.Patch("/v1/branches/{id}", h.updateBranch)
		r.Put("/v1/gating", h.updateGating)
		r.Get("/v1/entitlements", h.entitlements)
	})

	// admin console
	s.mux.Group(func(r chi.Router) {
		r.Use(requireRole(h.Tokens, auth.RoleAdmin))
		r.Get("/v1/admin/tenants", h.listTenants)
		r.Post("/v1/admin/tenants", h.createTenant)
		r.Patch("/v1/admin/tenants/{id}/plan", h.setPlan)
		r.Get("/v1/admin/settings", h.getSettings)
		r.Put("/v1/admin/settings", h.putSettings)
		r.Get("/v1/admin/analytics", h.analytics)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain failures onto problem+json responses.
func writeErr(w http.ResponseWriter, err error) {
	if ve, ok := domain.IsValidation(err); ok {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(problem{
			Type:   "about:blank",
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Fields: ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeProblem(w, http.StatusPaymentRequired, "Upgrade Required", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- public surface ----

type pageResponse struct {
	Tenant        string          `json:"tenant"`
	Slug          string          `json:"slug"`
	WelcomeCopy   *string         `json:"welcome_copy,omitempty"`
	LogoURL       *string         `json:"logo_url,omitempty"`
	CoverURL      *string         `json:"cover_url,omitempty"`
	GatingEnabled bool            `json:"gating_enabled"`
	Branches      []branchPayload `json:"branches"`
}

type branchPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

func (h *Handlers) getPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	pv, err := h.Pages.GetPage(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "no review page for this link")
			return
		}
		writeErr(w, err)
		return
	}

	resp := pageResponse{
		Tenant:        pv.TenantName,
		Slug:          pv.Slug,
		WelcomeCopy:   pv.WelcomeCopy,
		LogoURL:       pv.LogoURL,
		CoverURL:      pv.CoverURL,
		GatingEnabled: pv.GatingEnabled,
		Branches:      []branchPayload{},
	}
	for _, b := range pv.Branches {
		resp.Branches = append(resp.Branches, branchPayload{ID: b.ID, Name: b.Name, Address: b.Address, Active: b.Active})
	}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write page body")
	}
}

type submitRequest struct {
	Rating   int    `json:"rating"`
	BranchID string `json:"branch_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Comment  string `json:"comment"`
	Override bool   `json:"override"`
}

type submitResponse struct {
	Action        string  `json:"action"` // redirect | recorded | select_branch | fill_form
	RedirectURL   string  `json:"redirect_url,omitempty"`
	ReviewID      string  `json:"review_id,omitempty"`
	AllowOverride bool    `json:"allow_override,omitempty"`
	Source        *string `json:"source,omitempty"`
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}

	res, err := h.Submissions.Submit(r.Context(), slug, domain.Submission{
		Rating:   req.Rating,
		BranchID: req.BranchID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Comment:  req.Comment,
		Override: req.Override,
	})
	if err != nil {
		if ve, ok := domain.IsValidation(err); ok && res.Decision.NeedsForm {
			// the gated form: per-field errors, entered values kept client-side
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(problem{
				Type:   "about:blank",
				Title:  "Validation Failed",
				Status: http.StatusUnprocessableEntity,
				Fields: ve.Fields,
			})
			return
		}
		writeErr(w, err)
		return
	}

	switch {
	case res.Decision.NeedsBranch:
		writeJSON(w, http.StatusOK, submitResponse{Action: "select_branch"})
	case res.Decision.Route == domain.RouteExternal:
		src := string(res.Review.Source)
		writeJSON(w, http.StatusCreated, submitResponse{
			Action:      "redirect",
			RedirectURL: res.Decision.ExternalURL,
			ReviewID:    res.Review.ID,
			Source:      &src,
		})
	default:
		src := string(res.Review.Source)
		writeJSON(w, http.StatusCreated, submitResponse{
			Action:        "recorded",
			ReviewID:      res.Review.ID,
			AllowOverride: res.Decision.AllowOverride,
			Source:        &src,
		})
	}
}
