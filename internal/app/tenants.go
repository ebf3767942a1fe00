package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reviewloop/internal/domain"
)

// TenantService covers the owner and admin command paths: tenant and
// branch management (quota-enforced), gating config, review triage, and
// the global settings singleton.
type TenantService struct {
	tenants  domain.TenantRepository
	reviews  domain.ReviewRepository
	settings domain.SettingsRepository
	cache    domain.Cache
	now      func() time.Time
}

func NewTenantService(t domain.TenantRepository, r domain.ReviewRepository, s domain.SettingsRepository, c domain.Cache) *TenantService {
	return &TenantService{tenants: t, reviews: r, settings: s, cache: c, now: time.Now}
}

func (s *TenantService) CreateTenant(ctx context.Context, name, slug string) (domain.Tenant, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "required"
	}
	if slug == "" {
		fields["slug"] = "required"
	}
	if len(fields) > 0 {
		return domain.Tenant{}, &domain.ValidationError{Fields: fields}
	}
	t := domain.Tenant{ID: uuid.NewString(), Name: name, Slug: slug}
	if err := s.tenants.CreateTenant(ctx, t); err != nil {
		return domain.Tenant{}, err
	}
	return t, nil
}

func (s *TenantService) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenants.ListTenants(ctx)
}

func (s *TenantService) GetTenant(ctx context.Context, id string) (domain.Tenant, error) {
	return s.tenants.GetTenant(ctx, id)
}

// SetPlan assigns a raw plan key; derived status stays computed-on-read.
func (s *TenantService) SetPlan(ctx context.Context, tenantID, planKey string, active bool, endsAt *time.Time) error {
	t, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.tenants.UpdatePlan(ctx, tenantID, planKey, active, endsAt); err != nil {
		return err
	}
	s.invalidatePage(ctx, t.Slug)
	return nil
}

// UpdateGating replaces the tenant's gating configuration wholesale
// (last-write-wins) and drops the cached public page.
func (s *TenantService) UpdateGating(ctx context.Context, tenantID string, g domain.GatingConfig) error {
	t, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.tenants.UpdateGating(ctx, tenantID, g); err != nil {
		return err
	}
	s.invalidatePage(ctx, t.Slug)
	return nil
}

// AddBranch creates a branch if the plan's branch cap allows another.
// Enforcement is advisory (the store does not re-check), matching the
// product's client-side upgrade prompt.
func (s *TenantService) AddBranch(ctx context.Context, tenantID, name, address string, reviewLink *string) (domain.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Branch{}, &domain.ValidationError{Fields: map[string]string{"name": "required"}}
	}
	t, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return domain.Branch{}, err
	}
	ent := domain.DeriveEntitlements(&t, s.now())
	if len(t.Branches) >= ent.BranchCap {
		return domain.Branch{}, fmt.Errorf("branch cap %d reached: %w", ent.BranchCap, domain.ErrQuotaExceeded)
	}
	b := domain.Branch{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Name:       name,
		Address:    strings.TrimSpace(address),
		ReviewLink: reviewLink,
		Active:     true,
	}
	if err := s.tenants.CreateBranch(ctx, b); err != nil {
		return domain.Branch{}, err
	}
	s.invalidatePage(ctx, t.Slug)
	return b, nil
}

func (s *TenantService) UpdateBranch(ctx context.Context, b domain.Branch) error {
	t, err := s.tenants.GetTenant(ctx, b.TenantID)
	if err != nil {
		return err
	}
	if t.BranchByID(b.ID) == nil {
		return domain.ErrNotFound
	}
	if err := s.tenants.UpdateBranch(ctx, b); err != nil {
		return err
	}
	s.invalidatePage(ctx, t.Slug)
	return nil
}

// TriageReview updates the owner-facing workflow fields of a feedback
// record. The record itself is never re-created or reassigned.
func (s *TenantService) TriageReview(ctx context.Context, tenantID, reviewID string, status domain.ReviewStatus, replied bool) error {
	switch status {
	case domain.StatusPending, domain.StatusPublished, domain.StatusRejected:
	default:
		return &domain.ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	return s.reviews.UpdateReviewStatus(ctx, tenantID, reviewID, status, replied)
}

func (s *TenantService) DeleteReview(ctx context.Context, tenantID, reviewID string) error {
	return s.reviews.DeleteReview(ctx, tenantID, reviewID)
}

func (s *TenantService) Settings(ctx context.Context) (domain.Settings, error) {
	return s.settings.GetSettings(ctx)
}

func (s *TenantService) SaveSettings(ctx context.Context, cfg domain.Settings) error {
	cfg.UpdatedAt = s.now().UTC()
	return s.settings.SaveSettings(ctx, cfg)
}

func (s *TenantService) invalidatePage(ctx context.Context, slug string) {
	if s.cache == nil || slug == "" {
		return
	}
	_ = s.cache.Del(ctx, pageKey(slug))
}
