package app_test

import (
	"context"
	"sync"
	"time"

	"reviewloop/internal/domain"
)

// ---- fakes over the domain ports ----

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[string]domain.Tenant // by id
}

func newFakeTenantRepo(ts ...domain.Tenant) *fakeTenantRepo {
	f := &fakeTenantRepo{tenants: map[string]domain.Tenant{}}
	for _, t := range ts {
		f.tenants[t.ID] = t
	}
	return f
}

func (f *fakeTenantRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeTenantRepo) UpdateTenant(ctx context.Context, t domain.Tenant) error {
	return f.CreateTenant(ctx, t)
}

func (f *fakeTenantRepo) UpdatePlan(ctx context.Context, tenantID, planKey string, active bool, endsAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return domain.ErrNotFound
	}
	t.PlanKey, t.SubscriptionActive, t.SubscriptionEndsAt = planKey, active, endsAt
	f.tenants[tenantID] = t
	return nil
}

func (f *fakeTenantRepo) UpdateGating(ctx context.Context, tenantID string, g domain.GatingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Gating = g
	f.tenants[tenantID] = t
	return nil
}

func (f *fakeTenantRepo) CreateBranch(ctx context.Context, b domain.Branch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[b.TenantID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Branches = append(t.Branches, b)
	f.tenants[b.TenantID] = t
	return nil
}

func (f *fakeTenantRepo) UpdateBranch(ctx context.Context, b domain.Branch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[b.TenantID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range t.Branches {
		if t.Branches[i].ID == b.ID {
			t.Branches[i] = b
			f.tenants[b.TenantID] = t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeTenantRepo) GetTenant(ctx context.Context, id string) (domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTenantRepo) GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return domain.Tenant{}, domain.ErrNotFound
}

func (f *fakeTenantRepo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Tenant, 0, len(f.tenants))
	for _, t := range f.tenants {
		out = append(out, t)
	}
	return out, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []domain.Review
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, r domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, r)
	return nil
}

func (f *fakeReviewRepo) ListReviews(ctx context.Context, tenantID string, pg domain.PageQuery) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, r := range f.reviews {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
		if pg.Limit > 0 && len(out) == pg.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) UpdateReviewStatus(ctx context.Context, tenantID, id string, status domain.ReviewStatus, replied bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reviews {
		if f.reviews[i].ID == id && f.reviews[i].TenantID == tenantID {
			f.reviews[i].Status = status
			f.reviews[i].Replied = replied
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reviews {
		if f.reviews[i].ID == id && f.reviews[i].TenantID == tenantID {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReviewRepo) CountBySource(ctx context.Context, tenantID string) (map[domain.ReviewSource]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.ReviewSource]int{}
	for _, r := range f.reviews {
		if r.TenantID == tenantID {
			out[r.Source]++
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) RatingHistogram(ctx context.Context, tenantID string) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int]int{}
	for _, r := range f.reviews {
		if r.TenantID == tenantID {
			out[r.Rating]++
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reviews)
}

type fakeSettingsRepo struct{ s domain.Settings }

func (f *fakeSettingsRepo) GetSettings(ctx context.Context) (domain.Settings, error) {
	return f.s, nil
}

func (f *fakeSettingsRepo) SaveSettings(ctx context.Context, s domain.Settings) error {
	f.s = s
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok2 := dst.(*domain.PageView); ok2 {
		*d = v.(domain.PageView)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []domain.Review
	err   error
}

func (n *fakeNotifier) NotifyFeedback(ctx context.Context, url string, r domain.Review) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, r)
	return n.err
}

// ---- small helpers ----

func ptr(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
