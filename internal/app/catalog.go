package app

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"museum_directory/internal/adapters/observability"
	"museum_directory/internal/domain"
	"museum_directory/internal/geo"
	"museum_directory/internal/mockcatalog"
	"museum_directory/internal/themes"
)

// FacetStrategy selects how GetFacets answers.
type FacetStrategy string

const (
	// FacetsLive aggregates facet_groups from the records-v1 API.
	FacetsLive FacetStrategy = "live"
	// FacetsStatic serves embedded enumerations without counts.
	FacetsStatic FacetStrategy = "static"
)

const (
	opSearch   = "search"
	opGetByID  = "get_by_id"
	opLocation = "get_by_location"
	opFacets   = "facets"
)

type CatalogOptions struct {
	Query        QueryOptions
	MockFallback bool
	Facets       FacetStrategy
}

//go:embed static_facets.yaml
var staticFacetsYAML []byte

// CatalogClient answers catalog operations from the live upstream, falling
// back to the mock dataset on recoverable failures when enabled. It is
// immutable after construction.
type CatalogClient struct {
	fetcher domain.CatalogFetcher
	norm    *Normalizer
	mock    *mockcatalog.Catalog
	opts    CatalogOptions
	static  []domain.FacetGroup
}

var _ domain.Catalog = (*CatalogClient)(nil)

func NewCatalogClient(f domain.CatalogFetcher, n *Normalizer, mock *mockcatalog.Catalog, o CatalogOptions) (*CatalogClient, error) {
	if f == nil {
		return nil, errors.New("catalog client: nil fetcher")
	}
	if !o.Query.Schema.Valid() {
		return nil, fmt.Errorf("catalog client: unknown schema version %q", o.Query.Schema)
	}
	if n == nil {
		n = NewNormalizer(o.Query.Schema, nil)
	}
	if n.Schema() != o.Query.Schema {
		return nil, fmt.Errorf("catalog client: normalizer schema %q does not match %q", n.Schema(), o.Query.Schema)
	}
	if o.MockFallback && mock == nil {
		m, err := mockcatalog.New()
		if err != nil {
			return nil, err
		}
		mock = m
	}
	switch o.Facets {
	case FacetsLive, FacetsStatic:
	case "":
		o.Facets = FacetsLive
	default:
		return nil, fmt.Errorf("catalog client: unknown facet strategy %q", o.Facets)
	}
	if o.Facets == FacetsLive && o.Query.Schema == domain.SchemaExploreV2 {
		log.Info().Str("schema", string(o.Query.Schema)).Msg("facet aggregation unavailable, using static facets")
		o.Facets = FacetsStatic
	}
	static, err := loadStaticFacets()
	if err != nil {
		return nil, err
	}
	return &CatalogClient{fetcher: f, norm: n, mock: mock, opts: o, static: static}, nil
}

func (c *CatalogClient) Search(ctx context.Context, cr domain.SearchCriteria) (domain.SearchResult, error) {
	q, err := BuildQuery(cr, c.opts.Query)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res, err := c.searchLive(ctx, q)
	if err == nil {
		observability.ObserveOrigin(opSearch, string(domain.OriginLive))
		return res, nil
	}
	if !c.fallback(ctx, opSearch, err) {
		return domain.SearchResult{}, err
	}
	return c.mock.Search(cr, q.Limit), nil
}

func (c *CatalogClient) GetByID(ctx context.Context, id string) (domain.Museum, error) {
	m, _, err := c.Lookup(ctx, id)
	return m, err
}

// Lookup is GetByID that also reports the origin of the answer.
func (c *CatalogClient) Lookup(ctx context.Context, id string) (domain.Museum, domain.Origin, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Museum{}, "", domain.NewValidationError("id", "must not be empty")
	}
	env, err := c.fetch(ctx, ByIDQuery(id, c.opts.Query))
	if err == nil {
		if len(env.Records) == 0 {
			observability.ObserveOrigin(opGetByID, "error")
			return domain.Museum{}, "", domain.NewNotFoundError(id)
		}
		observability.ObserveOrigin(opGetByID, string(domain.OriginLive))
		return c.norm.Normalize(env.Records[0]), domain.OriginLive, nil
	}
	if !c.fallback(ctx, opGetByID, err) {
		return domain.Museum{}, "", err
	}
	m, err := c.mock.Get(id)
	if err != nil {
		return domain.Museum{}, "", err
	}
	return m, domain.OriginMock, nil
}

// GetByLocation returns museums within radiusKm, nearest first. A zero
// radius means domain.DefaultRadiusKm.
func (c *CatalogClient) GetByLocation(ctx context.Context, lat, lng, radiusKm float64) (domain.SearchResult, error) {
	cr := domain.SearchCriteria{
		Coordinates: &domain.Coordinates{Lat: lat, Lng: lng},
		RadiusKm:    radiusKm,
		Rows:        HardMaxRows,
	}
	q, err := BuildQuery(cr, c.opts.Query)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res, err := c.searchLive(ctx, q)
	if err == nil {
		observability.ObserveOrigin(opLocation, string(domain.OriginLive))
		return res, nil
	}
	if !c.fallback(ctx, opLocation, err) {
		return domain.SearchResult{}, err
	}
	return c.mock.Nearby(lat, lng, cr.Radius()), nil
}

func (c *CatalogClient) GetFacets(ctx context.Context) (domain.FacetSummary, error) {
	if c.opts.Facets == FacetsStatic {
		observability.ObserveOrigin(opFacets, string(domain.OriginLive))
		return domain.FacetSummary{Groups: cloneGroups(c.static), Origin: domain.OriginLive, Exhaustive: false}, nil
	}
	env, err := c.fetch(ctx, FacetQuery(c.opts.Query))
	if err == nil {
		observability.ObserveOrigin(opFacets, string(domain.OriginLive))
		groups := env.Facets
		if groups == nil {
			groups = []domain.FacetGroup{}
		}
		return domain.FacetSummary{Groups: groups, Origin: domain.OriginLive, Exhaustive: true}, nil
	}
	if !c.fallback(ctx, opFacets, err) {
		return domain.FacetSummary{}, err
	}
	return c.mock.Facets(), nil
}

func (c *CatalogClient) searchLive(ctx context.Context, q Query) (domain.SearchResult, error) {
	env, err := c.fetch(ctx, q)
	if err != nil {
		return domain.SearchResult{}, err
	}
	museums := c.norm.NormalizeAll(env.Records)
	if q.ClientTheme != "" {
		kept := museums[:0]
		for _, m := range museums {
			if themes.Matches(q.ClientTheme, m.Themes, m.Name, m.Description) {
				kept = append(kept, m)
			}
		}
		museums = kept
	}
	if q.Geo != nil {
		museums = geo.WithinRadius(museums, q.Geo.Lat, q.Geo.Lng, q.Geo.RadiusKm)
	}

	total := len(museums)
	if env.Total != nil && *env.Total > total {
		total = *env.Total
	}
	facets := env.Facets
	if facets == nil {
		facets = []domain.FacetGroup{}
	}
	return domain.SearchResult{Museums: museums, TotalCount: total, Facets: facets, Origin: domain.OriginLive}, nil
}

// fetch performs one upstream round trip and decodes the envelope. Errors the
// fetcher did not classify are treated as network failures.
func (c *CatalogClient) fetch(ctx context.Context, q Query) (envelope, error) {
	body, err := c.fetcher.Fetch(ctx, q.Values())
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewNetworkError(err)
		}
		return envelope{}, err
	}
	return decodeEnvelope(q.Schema, body)
}

// fallback reports whether op should be served from the mock dataset. A
// caller that gave up is not served; an expired deadline is a timeout and is.
func (c *CatalogClient) fallback(ctx context.Context, op string, err error) bool {
	if errors.Is(ctx.Err(), context.Canceled) || !c.opts.MockFallback || !domain.Recoverable(err) {
		observability.ObserveOrigin(op, "error")
		return false
	}
	log.Warn().Err(err).Str("operation", op).Msg("catalog unavailable, serving mock data")
	observability.ObserveOrigin(op, string(domain.OriginMock))
	return true
}

func loadStaticFacets() ([]domain.FacetGroup, error) {
	var doc map[string][]string
	if err := yaml.Unmarshal(staticFacetsYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode static facets: %w", err)
	}
	doc[domain.FacetTheme] = themes.Names()

	order := []string{domain.FacetRegion, domain.FacetCity, domain.FacetDepartment, domain.FacetTheme}
	groups := make([]domain.FacetGroup, 0, len(order))
	for _, name := range order {
		g := domain.FacetGroup{Name: name, Facets: make([]domain.Facet, 0, len(doc[name]))}
		for _, v := range doc[name] {
			g.Facets = append(g.Facets, domain.Facet{Name: v})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func cloneGroups(in []domain.FacetGroup) []domain.FacetGroup {
	out := make([]domain.FacetGroup, len(in))
	for i, g := range in {
		out[i] = domain.FacetGroup{Name: g.Name, Facets: append([]domain.Facet(nil), g.Facets...)}
	}
	return out
}
