package domain

import (
	"context"
	"time"
)

type TenantRepository interface {
	// Write paths
	CreateTenant(ctx context.Context, t Tenant) error
	UpdateTenant(ctx context.Context, t Tenant) error
	UpdatePlan(ctx context.Context, tenantID, planKey string, active bool, endsAt *time.Time) error
	UpdateGating(ctx context.Context, tenantID string, g GatingConfig) error
	CreateBranch(ctx context.Context, b Branch) error
	UpdateBranch(ctx context.Context, b Branch) error

	// Read paths
	GetTenant(ctx context.Context, id string) (Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r Review) error
	ListReviews(ctx context.Context, tenantID string, pg PageQuery) ([]Review, error)
	UpdateReviewStatus(ctx context.Context, tenantID, id string, status ReviewStatus, replied bool) error
	DeleteReview(ctx context.Context, tenantID, id string) error
	CountBySource(ctx context.Context, tenantID string) (map[ReviewSource]int, error)
	RatingHistogram(ctx context.Context, tenantID string) (map[int]int, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Notifier delivers new-feedback notifications to the admin-configured
// routing URL. Best effort: failures are logged, never surfaced to the
// visitor.
type Notifier interface {
	NotifyFeedback(ctx context.Context, url string, r Review) error
}

type PageQuery struct {
	Limit int
	Sort  string
}

// PageView is the public review page read model resolved from a slug.
type PageView struct {
	TenantID      string
	TenantName    string
	Slug          string
	WelcomeCopy   *string
	LogoURL       *string
	CoverURL      *string
	GatingEnabled bool
	Branches      []Branch
}
