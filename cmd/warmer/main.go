// Command warmer fills the response cache with the first result page of
// every region plus the facet summary.
package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"museum_directory/internal/adapters/observability"
	"museum_directory/internal/app"
	"museum_directory/internal/domain"
	"museum_directory/internal/shared"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	cache := shared.NewCache(cfg)
	if cache == nil {
		log.Fatal().Msg("REDIS_ADDR is empty, nothing to warm")
	}
	catalog, err := shared.NewCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog setup failed")
	}
	q := app.NewQueryService(catalog, cache, cfg.CacheTTL)

	sum, err := q.GetFacets(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("facets failed")
	}
	if sum.Origin == domain.OriginMock {
		log.Fatal().Msg("catalog unreachable, refusing to warm from mock data")
	}
	regions := regionsOf(sum)

	log.Info().
		Int("regions", len(regions)).
		Int("workers", cfg.WarmWorkers).
		Msg("warmer starting")

	var ok, failed int64
	sem := semaphore.NewWeighted(int64(max(cfg.WarmWorkers, 1)))
	var wg sync.WaitGroup

	for _, region := range regions {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := q.Search(ctx, domain.SearchCriteria{Region: region})
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Str("region", region).Err(err).Msg("warm failed")
				return
			}
			atomic.AddInt64(&ok, 1)
			log.Info().Str("region", region).Int("total", res.TotalCount).Str("origin", string(res.Origin)).Msg("warm ok")
		}(region)
	}

	wg.Wait()
	log.Info().Int64("ok", ok).Int64("failed", failed).Msg("warming completed")
}

func regionsOf(sum domain.FacetSummary) []string {
	for _, g := range sum.Groups {
		if g.Name != domain.FacetRegion {
			continue
		}
		out := make([]string, 0, len(g.Facets))
		for _, f := range g.Facets {
			out = append(out, f.Name)
		}
		return out
	}
	return nil
}
