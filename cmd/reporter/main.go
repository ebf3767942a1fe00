package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"reviewloop/internal/adapters/observability"
	"reviewloop/internal/app"
	"reviewloop/internal/shared"
	mysqlrepo "reviewloop/internal/storage/mysql"
)

// reporter computes the cross-tenant feedback report once and exits.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Int("workers", cfg.Workers).Msg("reporter starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	svc := app.NewAnalyticsService(repo, repo, cfg.Workers)

	rep, err := svc.Aggregate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("aggregate failed")
	}

	for _, t := range rep.Tenants {
		log.Info().
			Str("tenant", t.TenantName).
			Int("total", t.Total).
			Int("internal", t.BySource["internal"]).
			Int("external", t.BySource["external"]).
			Int("override", t.BySource["external_override"]).
			Msg("tenant feedback")
	}
	log.Info().
		Int("tenants", len(rep.Tenants)).
		Int("total", rep.Total).
		Interface("histogram", rep.Histogram).
		Msg("report completed")
}
