package domain

import (
	"context"
	"net/url"
)

// CatalogFetcher is the transport boundary to the upstream catalog.
// Implementations return NetworkError-classified errors for transport failures.
type CatalogFetcher interface {
	Fetch(ctx context.Context, params url.Values) ([]byte, error)
}

// Catalog is what consumers (HTTP, CLI, cache layer) call.
type Catalog interface {
	Search(ctx context.Context, c SearchCriteria) (SearchResult, error)
	GetByID(ctx context.Context, id string) (Museum, error)
	GetByLocation(ctx context.Context, lat, lng, radiusKm float64) (SearchResult, error)
	GetFacets(ctx context.Context) (FacetSummary, error)
}

type FavoritesRepository interface {
	Upsert(ctx context.Context, f Favorite) error
	// Insert stores f only when no favorite exists for its museum and reports
	// whether it did. It must be atomic with respect to Delete.
	Insert(ctx context.Context, f Favorite) (bool, error)
	Delete(ctx context.Context, museumID string) (bool, error)
	Get(ctx context.Context, museumID string) (Favorite, error)
	List(ctx context.Context) ([]Favorite, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
