package shared

import (
	"museum_directory/internal/adapters/museofile"
	redisad "museum_directory/internal/adapters/redis"
	"museum_directory/internal/app"
	"museum_directory/internal/domain"
	"museum_directory/internal/mockcatalog"
)

// NewCatalog wires the upstream client, normalizer and mock dataset.
func NewCatalog(c Config) (*app.CatalogClient, error) {
	client, err := museofile.New(museofile.Options{
		Endpoints: c.CatalogEndpoints,
		Timeout:   c.CatalogTimeout,
		RPS:       c.CatalogRPS,
		APIKey:    c.CatalogAPIKey,
	})
	if err != nil {
		return nil, err
	}
	mock, err := mockcatalog.New()
	if err != nil {
		return nil, err
	}
	return app.NewCatalogClient(client, app.NewNormalizer(c.CatalogSchema, nil), mock, app.CatalogOptions{
		Query: app.QueryOptions{
			Schema:      c.CatalogSchema,
			Dataset:     c.CatalogDataset,
			DefaultRows: c.CatalogDefaultRows,
			MaxRows:     c.CatalogMaxRows,
		},
		MockFallback: c.MockFallback,
		Facets:       app.FacetStrategy(c.Facets),
	})
}

// NewCache returns nil when REDIS_ADDR is unset; QueryService then reads through.
func NewCache(c Config) domain.Cache {
	if c.RedisAddr == "" {
		return nil
	}
	return redisad.New(c.RedisAddr, c.RedisPass, c.RedisDB)
}
