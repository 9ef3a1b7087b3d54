package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"museum_directory/internal/app"
	"museum_directory/internal/domain"
)

// ---- fakes ----

type fakeCatalog struct {
	origin  domain.Origin
	museum  domain.Museum
	results domain.SearchResult
	facets  domain.FacetSummary

	mu    sync.Mutex
	calls int
}

func (f *fakeCatalog) Search(ctx context.Context, c domain.SearchCriteria) (domain.SearchResult, error) {
	f.calls++
	r := f.results
	r.Origin = f.origin
	return r, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (domain.Museum, error) {
	m, _, err := f.Lookup(ctx, id)
	return m, err
}

func (f *fakeCatalog) Lookup(ctx context.Context, id string) (domain.Museum, domain.Origin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if id != f.museum.ID {
		return domain.Museum{}, "", domain.NewNotFoundError(id)
	}
	return f.museum, f.origin, nil
}

func (f *fakeCatalog) GetByLocation(ctx context.Context, lat, lng, r float64) (domain.SearchResult, error) {
	f.calls++
	res := f.results
	res.Origin = f.origin
	return res, nil
}

func (f *fakeCatalog) GetFacets(ctx context.Context) (domain.FacetSummary, error) {
	f.calls++
	s := f.facets
	s.Origin = f.origin
	return s, nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Museum:
		*d = v.(domain.Museum)
	case *domain.SearchResult:
		*d = v.(domain.SearchResult)
	case *domain.FacetSummary:
		*d = v.(domain.FacetSummary)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestGetByID_CacheMissThenHit(t *testing.T) {
	cat := &fakeCatalog{origin: domain.OriginLive, museum: domain.Museum{ID: "M0042", Name: "Musée Test"}}
	cache := &fakeCache{}
	q := app.NewQueryService(cat, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	m, err := q.GetByID(context.Background(), "M0042")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m.Name != "Musée Test" {
		t.Fatalf("unexpected museum: %+v", m)
	}

	// Mutate catalog to ensure second read indeed comes from cache
	cat.museum.Name = "SHOULD NOT SEE THIS"

	m2, origin, err := q.Lookup(context.Background(), "M0042")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m2.Name != "Musée Test" || origin != domain.OriginLive {
		t.Fatalf("expected cached museum, got %s (%s)", m2.Name, origin)
	}
	if cat.calls != 1 {
		t.Fatalf("expected one catalog call, got %d", cat.calls)
	}
}

func TestGetByID_MockOriginIsNotCached(t *testing.T) {
	cat := &fakeCatalog{origin: domain.OriginMock, museum: domain.Museum{ID: "M0001", Name: "Louvre"}}
	cache := &fakeCache{}
	q := app.NewQueryService(cat, cache, 10*time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := q.GetByID(context.Background(), "M0001"); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	if cat.calls != 2 || len(cache.store) != 0 {
		t.Fatalf("mock answers must bypass the cache: calls=%d cached=%d", cat.calls, len(cache.store))
	}
}

func TestSearch_CacheKeyedByCriteria(t *testing.T) {
	cat := &fakeCatalog{
		origin:  domain.OriginLive,
		results: domain.SearchResult{Museums: []domain.Museum{{ID: "a"}}, TotalCount: 1},
	}
	q := app.NewQueryService(cat, &fakeCache{}, time.Minute)
	ctx := context.Background()

	_, _ = q.Search(ctx, domain.SearchCriteria{Text: "louvre"})
	_, _ = q.Search(ctx, domain.SearchCriteria{Text: "louvre"})
	if cat.calls != 1 {
		t.Fatalf("expected cached second search, got %d calls", cat.calls)
	}

	_, _ = q.Search(ctx, domain.SearchCriteria{Text: "louvre", Page: 1})
	if cat.calls != 2 {
		t.Fatalf("different page must miss the cache, got %d calls", cat.calls)
	}
}

func TestSearch_MockResultsBypassCache(t *testing.T) {
	cat := &fakeCatalog{origin: domain.OriginMock}
	q := app.NewQueryService(cat, &fakeCache{}, time.Minute)

	_, _ = q.Search(context.Background(), domain.SearchCriteria{})
	res, _ := q.Search(context.Background(), domain.SearchCriteria{})
	if cat.calls != 2 || res.Origin != domain.OriginMock {
		t.Fatalf("unexpected: calls=%d origin=%s", cat.calls, res.Origin)
	}
}

func TestGetFacetsAndLocation_Cached(t *testing.T) {
	cat := &fakeCatalog{origin: domain.OriginLive, facets: domain.FacetSummary{Exhaustive: true}}
	q := app.NewQueryService(cat, &fakeCache{}, time.Minute)
	ctx := context.Background()

	_, _ = q.GetFacets(ctx)
	_, _ = q.GetFacets(ctx)
	_, _ = q.GetByLocation(ctx, 48.86, 2.33, 5)
	_, _ = q.GetByLocation(ctx, 48.86, 2.33, 5)
	_, _ = q.GetByLocation(ctx, 48.86, 2.33, 6)
	if cat.calls != 3 {
		t.Fatalf("expected 3 catalog calls, got %d", cat.calls)
	}
}

func TestQueryService_NilCache(t *testing.T) {
	cat := &fakeCatalog{origin: domain.OriginLive, museum: domain.Museum{ID: "x"}}
	q := app.NewQueryService(cat, nil, time.Minute)

	if _, err := q.GetByID(context.Background(), "x"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := q.GetByID(context.Background(), "y"); err == nil {
		t.Fatalf("expected not found")
	}
}
