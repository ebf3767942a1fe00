package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewloop/internal/domain"
)

// TenantStats is one tenant's aggregate, computed into an independent
// accumulator before merging so fan-out order never matters.
type TenantStats struct {
	TenantID   string
	TenantName string
	Histogram  map[int]int
	BySource   map[domain.ReviewSource]int
	Total      int
}

// Report is the cross-tenant admin analytics view.
type Report struct {
	Tenants   []TenantStats
	Total     int
	Histogram map[int]int
}

// AnalyticsService aggregates every tenant's feedback concurrently,
// bounded by a weighted semaphore.
type AnalyticsService struct {
	tenants domain.TenantRepository
	reviews domain.ReviewRepository
	workers int64
}

func NewAnalyticsService(t domain.TenantRepository, r domain.ReviewRepository, workers int) *AnalyticsService {
	if workers <= 0 {
		workers = 4
	}
	return &AnalyticsService{tenants: t, reviews: r, workers: int64(workers)}
}

func (s *AnalyticsService) Aggregate(ctx context.Context) (Report, error) {
	ts, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return Report{}, err
	}

	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	results := make([]TenantStats, len(ts))

	for i, t := range ts {
		i, t := i, t

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			return Report{}, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			st, err := s.tenantStats(ctx, t)
			if err != nil {
				log.Warn().Str("tenant", t.ID).Err(err).Msg("tenant aggregate failed")
				return
			}
			results[i] = st
		}()
	}
	wg.Wait()

	rep := Report{Histogram: map[int]int{}}
	for _, st := range results {
		if st.TenantID == "" {
			continue // failed tenant, already logged
		}
		rep.Tenants = append(rep.Tenants, st)
		rep.Total += st.Total
		for rating, n := range st.Histogram {
			rep.Histogram[rating] += n
		}
	}
	return rep, nil
}

func (s *AnalyticsService) tenantStats(ctx context.Context, t domain.Tenant) (TenantStats, error) {
	hist, err := s.reviews.RatingHistogram(ctx, t.ID)
	if err != nil {
		return TenantStats{}, err
	}
	bySrc, err := s.reviews.CountBySource(ctx, t.ID)
	if err != nil {
		return TenantStats{}, err
	}
	st := TenantStats{TenantID: t.ID, TenantName: t.Name, Histogram: hist, BySource: bySrc}
	for _, n := range hist {
		st.Total += n
	}
	return st, nil
}
