package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"museum_directory/internal/domain"
)

// QueryService puts a cache in front of a Catalog. Mock answers are never
// cached so the live catalog is retried on the next request.
type QueryService struct {
	catalog  domain.Catalog
	cache    domain.Cache
	cacheTTL time.Duration
}

var _ domain.Catalog = (*QueryService)(nil)

func NewQueryService(c domain.Catalog, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{catalog: c, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) Search(ctx context.Context, c domain.SearchCriteria) (domain.SearchResult, error) {
	key := "search:" + criteriaKey(c)
	var out domain.SearchResult
	if s.get(ctx, key, &out) {
		return out, nil
	}
	res, err := s.catalog.Search(ctx, c)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if res.Origin == domain.OriginLive {
		s.set(ctx, key, res)
	}
	return res, nil
}

func (s *QueryService) GetByID(ctx context.Context, id string) (domain.Museum, error) {
	m, _, err := s.Lookup(ctx, id)
	return m, err
}

// Lookup answers from cache when possible. Cached museums are live ones.
// The origin is empty when the wrapped catalog cannot report it, and such
// answers are not cached.
func (s *QueryService) Lookup(ctx context.Context, id string) (domain.Museum, domain.Origin, error) {
	key := MuseumKey(id)
	var m domain.Museum
	if s.get(ctx, key, &m) {
		return m, domain.OriginLive, nil
	}
	lk, ok := s.catalog.(originLookup)
	if !ok {
		m, err := s.catalog.GetByID(ctx, id)
		return m, "", err
	}
	m, origin, err := lk.Lookup(ctx, id)
	if err != nil {
		return domain.Museum{}, "", err
	}
	if origin == domain.OriginLive {
		s.set(ctx, key, m)
	}
	return m, origin, nil
}

func (s *QueryService) GetByLocation(ctx context.Context, lat, lng, radiusKm float64) (domain.SearchResult, error) {
	key := fmt.Sprintf("near:%s:%s:%s", num(lat), num(lng), num(radiusKm))
	var out domain.SearchResult
	if s.get(ctx, key, &out) {
		return out, nil
	}
	res, err := s.catalog.GetByLocation(ctx, lat, lng, radiusKm)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if res.Origin == domain.OriginLive {
		s.set(ctx, key, res)
	}
	return res, nil
}

func (s *QueryService) GetFacets(ctx context.Context) (domain.FacetSummary, error) {
	const key = "facets"
	var out domain.FacetSummary
	if s.get(ctx, key, &out) {
		return out, nil
	}
	sum, err := s.catalog.GetFacets(ctx)
	if err != nil {
		return domain.FacetSummary{}, err
	}
	if sum.Origin == domain.OriginLive {
		s.set(ctx, key, sum)
	}
	return sum, nil
}

// originLookup is GetByID that also reports where the museum came from.
type originLookup interface {
	Lookup(ctx context.Context, id string) (domain.Museum, domain.Origin, error)
}

// MuseumKey is the cache key of one museum.
func MuseumKey(id string) string { return "museum:" + id }

func (s *QueryService) get(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

// set is best effort; oversized payloads are skipped.
func (s *QueryService) set(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if b, _ := json.Marshal(v); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
}

// criteriaKey hashes the canonical JSON of c; field order is fixed by the struct.
func criteriaKey(c domain.SearchCriteria) string {
	b, _ := json.Marshal(c)
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
