package app

import (
	"context"
	"fmt"
	"time"

	"reviewloop/internal/domain"
)

// PageService serves the public review page and owner-side reads.
type PageService struct {
	tenants  domain.TenantRepository
	reviews  domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewPageService(t domain.TenantRepository, r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *PageService {
	return &PageService{tenants: t, reviews: r, cache: c, cacheTTL: ttl}
}

func pageKey(slug string) string { return fmt.Sprintf("page:%s", slug) }

// GetPage resolves a slug to the public page view (branding, welcome
// copy, gating flag, active branches). Cached per slug; gating-config
// and branch writes invalidate the key.
func (s *PageService) GetPage(ctx context.Context, slug string) (domain.PageView, error) {
	key := pageKey(slug)
	var pv domain.PageView
	if ok, _ := s.cache.Get(ctx, key, &pv); ok {
		return pv, nil
	}
	t, err := s.tenants.GetTenantBySlug(ctx, slug)
	if err != nil {
		return domain.PageView{}, err
	}
	pv = domain.PageView{
		TenantID:      t.ID,
		TenantName:    t.Name,
		Slug:          t.Slug,
		WelcomeCopy:   t.Gating.WelcomeCopy,
		LogoURL:       t.Gating.LogoURL,
		CoverURL:      t.Gating.CoverURL,
		GatingEnabled: t.Gating.Enabled,
		Branches:      t.ActiveBranches(),
	}
	_ = s.cache.Set(ctx, key, pv, int(s.cacheTTL.Seconds()))
	return pv, nil
}

// ListReviews returns the tenant's feedback history, newest first,
// capped at the plan's review-history entitlement.
func (s *PageService) ListReviews(ctx context.Context, tenantID string, pg domain.PageQuery) ([]domain.Review, error) {
	t, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	ent := domain.DeriveEntitlements(&t, time.Now())
	if ent.ReviewHistoryCap > 0 && (pg.Limit <= 0 || pg.Limit > ent.ReviewHistoryCap) {
		pg.Limit = ent.ReviewHistoryCap
	}
	if pg.Limit <= 0 {
		return nil, nil
	}
	return s.reviews.ListReviews(ctx, tenantID, pg)
}

// Entitlements recomputes the derived subscription view for a tenant.
func (s *PageService) Entitlements(ctx context.Context, tenantID string) (domain.Entitlements, error) {
	t, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return domain.Entitlements{}, err
	}
	return domain.DeriveEntitlements(&t, time.Now()), nil
}
