package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"reviewloop/internal/adapters/auth"
	server "reviewloop/internal/adapters/http_server"
	"reviewloop/internal/adapters/notifier"
	"reviewloop/internal/adapters/observability"
	redisad "reviewloop/internal/adapters/redis"
	"reviewloop/internal/app"
	"reviewloop/internal/shared"
	mysqlrepo "reviewloop/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens := auth.New(cfg.JWTSecret, 0)
	hook := notifier.New(5)

	pages := app.NewPageService(repo, repo, cache, cfg.CacheTTL)
	subs := app.NewSubmissionService(repo, repo, repo, hook, cfg.FallbackLink)
	tenants := app.NewTenantService(repo, repo, repo, cache)
	analytics := app.NewAnalyticsService(repo, repo, cfg.Workers)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Pages:       pages,
		Submissions: subs,
		Tenants:     tenants,
		Analytics:   analytics,
		Tokens:      tokens,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
