package mysql

import (
	"context"
	"database/sql"
	"time"

	"reviewloop/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- tenants ----

func (r *Repo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, insertTenantSQL,
		t.ID,
		t.Name,
		t.Slug,
		valStr(t.ContactName),
		valStr(t.ContactEmail),
		valStr(t.ContactPhone),
		t.PlanKey,
		t.SubscriptionActive,
		valTime(t.SubscriptionEndsAt),
		valTime(t.TrialEndsAt),
		t.Gating.Enabled,
		valStr(t.Gating.WelcomeCopy),
		valStr(t.Gating.LogoURL),
		valStr(t.Gating.CoverURL),
		valStr(t.Gating.ReviewLink),
	)
	return err
}

func (r *Repo) UpdateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, updateTenantSQL,
		t.Name,
		t.Slug,
		valStr(t.ContactName),
		valStr(t.ContactEmail),
		valStr(t.ContactPhone),
		t.ID,
	)
	return err
}

func (r *Repo) UpdatePlan(ctx context.Context, tenantID, planKey string, active bool, endsAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, updatePlanSQL, planKey, active, valTime(endsAt), tenantID)
	return err
}

func (r *Repo) UpdateGating(ctx context.Context, tenantID string, g domain.GatingConfig) error {
	_, err := r.db.ExecContext(ctx, updateGatingSQL,
		g.Enabled,
		valStr(g.WelcomeCopy),
		valStr(g.LogoURL),
		valStr(g.CoverURL),
		valStr(g.ReviewLink),
		tenantID,
	)
	return err
}

func (r *Repo) GetTenant(ctx context.Context, id string) (domain.Tenant, error) {
	return r.loadTenant(ctx, getTenantSQL, id)
}

func (r *Repo) GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return r.loadTenant(ctx, getTenantBySlugSQL, slug)
}

func (r *Repo) loadTenant(ctx context.Context, query, arg string) (domain.Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.Tenant{}, err
	}
	t.Branches, err = r.listBranches(ctx, t.ID)
	if err != nil {
		return domain.Tenant{}, err
	}
	return t, nil
}

func (r *Repo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, listTenantsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Branch lists are loaded per tenant; list reads are admin-side and rare.
	for i := range out {
		out[i].Branches, err = r.listBranches(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTenant(row rowScanner) (domain.Tenant, error) {
	var t domain.Tenant
	var contactName, contactEmail, contactPhone sql.NullString
	var subEndsAt, trialEndsAt sql.NullTime
	var welcome, logo, cover, link sql.NullString

	err := row.Scan(
		&t.ID, &t.Name, &t.Slug,
		&contactName, &contactEmail, &contactPhone,
		&t.PlanKey, &t.SubscriptionActive, &subEndsAt, &trialEndsAt,
		&t.Gating.Enabled, &welcome, &logo, &cover, &link,
	)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Tenant{}, err
	}
	t.ContactName = strPtr(contactName)
	t.ContactEmail = strPtr(contactEmail)
	t.ContactPhone = strPtr(contactPhone)
	t.SubscriptionEndsAt = timePtr(subEndsAt)
	t.TrialEndsAt = timePtr(trialEndsAt)
	t.Gating.WelcomeCopy = strPtr(welcome)
	t.Gating.LogoURL = strPtr(logo)
	t.Gating.CoverURL = strPtr(cover)
	t.Gating.ReviewLink = strPtr(link)
	return t, nil
}

// ---- branches ----

func (r *Repo) CreateBranch(ctx context.Context, b domain.Branch) error {
	_, err := r.db.ExecContext(ctx, insertBranchSQL,
		b.ID, b.TenantID, b.Name, b.Address, valStr(b.ReviewLink), b.Active)
	return err
}

func (r *Repo) UpdateBranch(ctx context.Context, b domain.Branch) error {
	_, err := r.db.ExecContext(ctx, updateBranchSQL,
		b.Name, b.Address, valStr(b.ReviewLink), b.Active, b.ID, b.TenantID)
	return err
}

func (r *Repo) listBranches(ctx context.Context, tenantID string) ([]domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx, listBranchesSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Branch
	for rows.Next() {
		var b domain.Branch
		var link sql.NullString
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &link, &b.Active); err != nil {
			return nil, err
		}
		b.ReviewLink = strPtr(link)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---- reviews ----

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) error {
	var createdAt any
	if !rv.CreatedAt.IsZero() {
		createdAt = rv.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.TenantID,
		rv.BranchName,
		rv.Rating,
		valStr(rv.Comment),
		valStr(rv.Name),
		valStr(rv.Phone),
		valStr(rv.Email),
		string(rv.Source),
		string(rv.Status),
		rv.Replied,
		createdAt,
	)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, tenantID string, pg domain.PageQuery) ([]domain.Review, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var comment, name, phone, email sql.NullString
		var source, status string
		if err := rows.Scan(
			&rv.ID, &rv.TenantID, &rv.BranchName, &rv.Rating,
			&comment, &name, &phone, &email,
			&source, &status, &rv.Replied, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		rv.Comment = strPtr(comment)
		rv.Name = strPtr(name)
		rv.Phone = strPtr(phone)
		rv.Email = strPtr(email)
		rv.Source = domain.ReviewSource(source)
		rv.Status = domain.ReviewStatus(status)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateReviewStatus(ctx context.Context, tenantID, id string, status domain.ReviewStatus, replied bool) error {
	_, err := r.db.ExecContext(ctx, updateReviewStatusSQL, string(status), replied, id, tenantID)
	return err
}

func (r *Repo) DeleteReview(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteReviewSQL, id, tenantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repo) CountBySource(ctx context.Context, tenantID string) (map[domain.ReviewSource]int, error) {
	rows, err := r.db.QueryContext(ctx, countBySourceSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.ReviewSource]int{}
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, err
		}
		out[domain.ReviewSource(src)] = n
	}
	return out, rows.Err()
}

func (r *Repo) RatingHistogram(ctx context.Context, tenantID string) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, ratingHistogramSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		out[rating] = n
	}
	return out, rows.Err()
}

// ---- settings ----

func (r *Repo) GetSettings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	var phone, notify sql.NullString
	err := r.db.QueryRowContext(ctx, getSettingsSQL).
		Scan(&phone, &s.DemoEnabled, &s.DemoSlotMinutes, &notify, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		// Singleton not initialized yet; zero settings is a valid state.
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	s.WidgetPhone = strPtr(phone)
	s.NotifyURL = strPtr(notify)
	return s, nil
}

func (r *Repo) SaveSettings(ctx context.Context, s domain.Settings) error {
	_, err := r.db.ExecContext(ctx, saveSettingsSQL,
		valStr(s.WidgetPhone), s.DemoEnabled, s.DemoSlotMinutes, valStr(s.NotifyURL))
	return err
}

// requireRow maps zero affected rows onto ErrNotFound. Only used on
// deletes; MySQL reports zero affected rows for no-op updates, which
// would false-positive here.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
