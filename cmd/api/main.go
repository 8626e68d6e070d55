package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/adapters/hostaway"
	server "hostaway_reviews/internal/adapters/http_server"
	"hostaway_reviews/internal/adapters/observability"
	redisad "hostaway_reviews/internal/adapters/redis"
	"hostaway_reviews/internal/app"
	"hostaway_reviews/internal/domain"
	"hostaway_reviews/internal/shared"
	"hostaway_reviews/internal/storage/memory"
	mysqlrepo "hostaway_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// deps
	src := reviewSource(cfg)
	store := moderationStore(cfg)
	q := app.NewQueryService(src, store)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, WriteRPS: cfg.WriteRPS})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("source", cfg.ReviewSource).
		Str("store", cfg.Store).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func reviewSource(cfg shared.Config) domain.ReviewSource {
	switch cfg.ReviewSource {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db)
	default:
		if cfg.FixturePath == "" {
			return hostaway.NewFixture()
		}
		src, err := hostaway.LoadFile(cfg.FixturePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.FixturePath).Msg("fixture load failed")
		}
		return src
	}
}

func moderationStore(cfg shared.Config) domain.ModerationStore {
	if cfg.Store != shared.StoreRedis {
		return memory.New()
	}
	st := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
	return st
}
