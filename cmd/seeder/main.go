package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hostaway_reviews/internal/adapters/hostaway"
	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/app"
	"hostaway_reviews/internal/domain"
	"hostaway_reviews/internal/shared"
	mysqlrepo "hostaway_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.SeedWorkers).
		Int("batch", cfg.SeedBatch).
		Str("fixture", cfg.FixturePath).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	var src domain.ReviewSource = hostaway.NewFixture()
	if cfg.FixturePath != "" {
		f, err := hostaway.LoadFile(cfg.FixturePath)
		if err != nil {
			log.Fatal().Err(err).Msg("fixture load failed")
		}
		src = f
	}

	seed := app.NewSeedService(src, repo)
	batches, err := seed.Batches(ctx, cfg.SeedBatch)
	if err != nil {
		log.Fatal().Err(err).Msg("load fixture failed")
	}

	workers := cfg.SeedWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg       sync.WaitGroup
		seeded   atomic.Int64
		failures atomic.Int64
	)

	for i, b := range batches {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int, batch []map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			cnt, err := seed.SeedBatch(ctx, batch)
			if err != nil {
				failures.Add(1)
				log.Warn().Int("batch", n).Err(err).Msg("seed batch failed")
				return
			}
			seeded.Add(int64(cnt))
			log.Info().Int("batch", n).Int("reviews", cnt).Msg("seed batch ok")
		}(i, b)
	}

	wg.Wait()

	counts, err := repo.CountByListing(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count by listing failed")
	}
	for listing, n := range counts {
		log.Info().Str("listing", listing).Int("reviews", n).Msg("catalog")
	}

	if failures.Load() > 0 {
		log.Fatal().Int64("failed_batches", failures.Load()).Int64("seeded", seeded.Load()).Msg("seeding incomplete")
	}
	log.Info().Int64("seeded", seeded.Load()).Msg("seeding completed")
}
