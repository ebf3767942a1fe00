//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"reviewloop/internal/domain"
	mysqlrepo "reviewloop/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string        { return &s }
func ptime(t time.Time) *time.Time { return &t }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviewloop",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviewloop")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_TenantReviewLifecycle(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Arrange a tenant on a paid plan with one branch
	ends := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	tn := domain.Tenant{
		ID:                 "11111111-1111-1111-1111-111111111111",
		Name:               "Cafe Uno",
		Slug:               "cafe-uno",
		ContactEmail:       pstr("owner@cafeuno.test"),
		PlanKey:            "plan_pro",
		SubscriptionActive: true,
		SubscriptionEndsAt: ptime(ends),
		Gating: domain.GatingConfig{
			Enabled:    true,
			ReviewLink: pstr("https://maps.example/cafe-uno"),
		},
	}
	if err := repo.CreateTenant(ctx, tn); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if err := repo.CreateBranch(ctx, domain.Branch{
		ID:       "22222222-2222-2222-2222-222222222222",
		TenantID: tn.ID,
		Name:     "Harbor",
		Address:  "2 Pier Rd",
		Active:   true,
	}); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	got, err := repo.GetTenantBySlug(ctx, "cafe-uno")
	if err != nil {
		t.Fatalf("GetTenantBySlug: %v", err)
	}
	if got.Name != "Cafe Uno" || !got.SubscriptionActive || got.SubscriptionEndsAt == nil {
		t.Fatalf("unexpected tenant: %+v", got)
	}
	if len(got.Branches) != 1 || got.Branches[0].Name != "Harbor" {
		t.Fatalf("unexpected branches: %+v", got.Branches)
	}
	if got.Gating.ReviewLink == nil || *got.Gating.ReviewLink != "https://maps.example/cafe-uno" {
		t.Fatalf("unexpected gating: %+v", got.Gating)
	}

	if _, err := repo.GetTenantBySlug(ctx, "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Reviews: one gated feedback record, one external provenance record
	r1 := domain.Review{
		ID:         "33333333-3333-3333-3333-333333333333",
		TenantID:   tn.ID,
		BranchName: "Harbor 2 Pier Rd",
		Rating:     2,
		Comment:    pstr("Cold food"),
		Name:       pstr("Ana"),
		Phone:      pstr("555-0100"),
		Email:      pstr("ana@example.test"),
		Source:     domain.SourceInternal,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	r2 := domain.Review{
		ID:         "44444444-4444-4444-4444-444444444444",
		TenantID:   tn.ID,
		BranchName: "Harbor 2 Pier Rd",
		Rating:     5,
		Source:     domain.SourceExternal,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Second).Add(time.Second),
	}
	if err := repo.CreateReview(ctx, r1); err != nil {
		t.Fatalf("CreateReview r1: %v", err)
	}
	if err := repo.CreateReview(ctx, r2); err != nil {
		t.Fatalf("CreateReview r2: %v", err)
	}

	rs, err := repo.ListReviews(ctx, tn.ID, domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("got %d reviews", len(rs))
	}
	// newest first
	if rs[0].ID != r2.ID {
		t.Fatalf("order: got %s first", rs[0].ID)
	}
	if rs[1].Comment == nil || *rs[1].Comment != "Cold food" {
		t.Fatalf("contact fields lost: %+v", rs[1])
	}
	if rs[0].Comment != nil {
		t.Fatalf("external record must carry no form fields: %+v", rs[0])
	}

	// Triage, then delete
	if err := repo.UpdateReviewStatus(ctx, tn.ID, r1.ID, domain.StatusPublished, true); err != nil {
		t.Fatalf("UpdateReviewStatus: %v", err)
	}
	rs, err = repo.ListReviews(ctx, tn.ID, domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if rs[1].Status != domain.StatusPublished || !rs[1].Replied {
		t.Fatalf("triage not persisted: %+v", rs[1])
	}

	if err := repo.DeleteReview(ctx, tn.ID, r2.ID); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if err := repo.DeleteReview(ctx, tn.ID, r2.ID); err != domain.ErrNotFound {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}

	// Aggregates feed the admin analytics view
	hist, err := repo.RatingHistogram(ctx, tn.ID)
	if err != nil {
		t.Fatalf("RatingHistogram: %v", err)
	}
	if hist[2] != 1 || len(hist) != 1 {
		t.Fatalf("histogram: %+v", hist)
	}
	bySrc, err := repo.CountBySource(ctx, tn.ID)
	if err != nil {
		t.Fatalf("CountBySource: %v", err)
	}
	if bySrc[domain.SourceInternal] != 1 {
		t.Fatalf("by source: %+v", bySrc)
	}
}

func TestRepo_MySQL_PlanAndSettings(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	tn := domain.Tenant{
		ID:      "55555555-5555-5555-5555-555555555555",
		Name:    "Bar Dos",
		Slug:    "bar-dos",
		PlanKey: "starter",
	}
	if err := repo.CreateTenant(ctx, tn); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	ends := time.Now().Add(365 * 24 * time.Hour).UTC().Truncate(time.Second)
	if err := repo.UpdatePlan(ctx, tn.ID, "professional", true, ptime(ends)); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	got, err := repo.GetTenant(ctx, tn.ID)
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.PlanKey != "professional" || !got.SubscriptionActive || got.SubscriptionEndsAt == nil {
		t.Fatalf("plan not persisted: %+v", got)
	}
	if domain.ParsePlan(got.PlanKey) != domain.PlanPro {
		t.Fatalf("plan key %q must normalize to pro", got.PlanKey)
	}

	if err := repo.UpdateGating(ctx, tn.ID, domain.GatingConfig{
		Enabled:     false,
		WelcomeCopy: pstr("How was your visit?"),
	}); err != nil {
		t.Fatalf("UpdateGating: %v", err)
	}
	got, err = repo.GetTenant(ctx, tn.ID)
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.Gating.Enabled || got.Gating.WelcomeCopy == nil || *got.Gating.WelcomeCopy != "How was your visit?" {
		t.Fatalf("gating not persisted: %+v", got.Gating)
	}

	// Settings singleton: zero before first save, upsert after
	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.WidgetPhone != nil || s.DemoEnabled {
		t.Fatalf("expected zero settings, got %+v", s)
	}

	if err := repo.SaveSettings(ctx, domain.Settings{
		WidgetPhone:     pstr("+1 555 0100"),
		DemoEnabled:     true,
		DemoSlotMinutes: 45,
		NotifyURL:       pstr("https://hooks.example/feedback"),
	}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	// second save exercises the upsert path
	if err := repo.SaveSettings(ctx, domain.Settings{
		WidgetPhone:     pstr("+1 555 0199"),
		DemoEnabled:     true,
		DemoSlotMinutes: 30,
		NotifyURL:       pstr("https://hooks.example/feedback"),
	}); err != nil {
		t.Fatalf("SaveSettings upsert: %v", err)
	}
	s, err = repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.WidgetPhone == nil || *s.WidgetPhone != "+1 555 0199" || s.DemoSlotMinutes != 30 {
		t.Fatalf("settings not upserted: %+v", s)
	}
}
