// Package mockcatalog serves a fixed, deterministic museum dataset used when
// the live catalog cannot be reached or is disabled.
package mockcatalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"museum_directory/internal/domain"
	"museum_directory/internal/geo"
	"museum_directory/internal/textnorm"
	"museum_directory/internal/themes"
)

//go:embed museums.yaml
var museumsYAML []byte

type coordinatesDoc struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type museumDoc struct {
	ID                   string          `yaml:"id"`
	Name                 string          `yaml:"name"`
	Description          string          `yaml:"description"`
	Address              string          `yaml:"address"`
	City                 string          `yaml:"city"`
	Region               string          `yaml:"region"`
	PostalCode           string          `yaml:"postal_code"`
	Department           string          `yaml:"department"`
	Coordinates          *coordinatesDoc `yaml:"coordinates"`
	Themes               []string        `yaml:"themes"`
	FreeEntry            bool            `yaml:"free_entry"`
	WheelchairAccessible bool            `yaml:"wheelchair_accessible"`
	Phone                string          `yaml:"phone"`
	Website              string          `yaml:"website"`
	Email                string          `yaml:"email"`
	OpeningHours         string          `yaml:"opening_hours"`
	Pricing              string          `yaml:"pricing"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	museums []domain.Museum
}

// New decodes the embedded dataset.
func New() (*Catalog, error) {
	var doc struct {
		Museums []museumDoc `yaml:"museums"`
	}
	if err := yaml.Unmarshal(museumsYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode mock dataset: %w", err)
	}
	c := &Catalog{museums: make([]domain.Museum, 0, len(doc.Museums))}
	for _, d := range doc.Museums {
		c.museums = append(c.museums, d.museum())
	}
	return c, nil
}

// MustNew is New for composition roots and tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

func (d museumDoc) museum() domain.Museum {
	m := domain.Museum{
		ID:                   d.ID,
		Name:                 d.Name,
		Description:          d.Description,
		Address:              d.Address,
		City:                 d.City,
		Region:               d.Region,
		PostalCode:           d.PostalCode,
		Department:           d.Department,
		Themes:               append([]string{}, d.Themes...),
		FreeEntry:            d.FreeEntry,
		WheelchairAccessible: d.WheelchairAccessible,
		Phone:                d.Phone,
		Website:              d.Website,
		Email:                d.Email,
		OpeningHours:         d.OpeningHours,
		Pricing:              d.Pricing,
	}
	if d.Coordinates != nil {
		m.Coordinates = &domain.Coordinates{Lat: d.Coordinates.Lat, Lng: d.Coordinates.Lng}
	}
	return m
}

// All returns fresh copies of every museum in dataset order.
func (c *Catalog) All() []domain.Museum {
	out := make([]domain.Museum, len(c.museums))
	for i, m := range c.museums {
		out[i] = clone(m)
	}
	return out
}

func clone(m domain.Museum) domain.Museum {
	m.Themes = append([]string{}, m.Themes...)
	if m.Coordinates != nil {
		c := *m.Coordinates
		m.Coordinates = &c
	}
	return m
}

// Get looks a museum up by id.
func (c *Catalog) Get(id string) (domain.Museum, error) {
	for _, m := range c.museums {
		if m.ID == id {
			return clone(m), nil
		}
	}
	return domain.Museum{}, domain.NewNotFoundError(id)
}

// Search filters client-side then paginates. rows must already be resolved
// to a positive page size by the caller.
func (c *Catalog) Search(cr domain.SearchCriteria, rows int) domain.SearchResult {
	matched := c.filter(cr)
	if cr.Coordinates != nil {
		matched = geo.WithinRadius(matched, cr.Coordinates.Lat, cr.Coordinates.Lng, cr.Radius())
	}
	return domain.SearchResult{
		Museums:    page(matched, cr.Page, rows),
		TotalCount: len(matched),
		Facets:     facetsOf(matched),
		Origin:     domain.OriginMock,
	}
}

// Nearby is the proximity query over the whole dataset.
func (c *Catalog) Nearby(lat, lng, radiusKm float64) domain.SearchResult {
	out := geo.WithinRadius(c.All(), lat, lng, radiusKm)
	return domain.SearchResult{
		Museums:    out,
		TotalCount: len(out),
		Facets:     []domain.FacetGroup{},
		Origin:     domain.OriginMock,
	}
}

// Facets is a derived scan of the dataset; counts are exact for this dataset.
func (c *Catalog) Facets() domain.FacetSummary {
	return domain.FacetSummary{Groups: facetsOf(c.museums), Origin: domain.OriginMock, Exhaustive: true}
}

func (c *Catalog) filter(cr domain.SearchCriteria) []domain.Museum {
	text := strings.TrimSpace(cr.Text)
	city := strings.TrimSpace(cr.City)
	region := strings.TrimSpace(cr.Region)
	department := strings.TrimSpace(cr.Department)

	out := make([]domain.Museum, 0, len(c.museums))
	for _, m := range c.museums {
		switch {
		case text != "" && !textnorm.Contains(m.Name, text) && !textnorm.Contains(m.Description, text):
			continue
		case region != "" && m.Region != region:
			continue
		case city != "" && !textnorm.Contains(m.City, city):
			continue
		case department != "" && m.Department != department:
			continue
		case !themes.Matches(cr.Theme, m.Themes, m.Name, m.Description):
			continue
		case cr.FreeEntry && !m.FreeEntry:
			continue
		case cr.WheelchairAccessible && !m.WheelchairAccessible:
			continue
		}
		out = append(out, clone(m))
	}
	return out
}

func page(in []domain.Museum, p, rows int) []domain.Museum {
	if rows <= 0 {
		return []domain.Museum{}
	}
	start := p * rows
	if start >= len(in) {
		return []domain.Museum{}
	}
	end := start + rows
	if end > len(in) {
		end = len(in)
	}
	return in[start:end]
}

// facetsOf counts distinct values per dimension, most frequent first.
func facetsOf(ms []domain.Museum) []domain.FacetGroup {
	dims := []struct {
		name   string
		values func(domain.Museum) []string
	}{
		{domain.FacetRegion, func(m domain.Museum) []string { return []string{m.Region} }},
		{domain.FacetCity, func(m domain.Museum) []string { return []string{m.City} }},
		{domain.FacetDepartment, func(m domain.Museum) []string { return []string{m.Department} }},
		{domain.FacetTheme, func(m domain.Museum) []string { return m.Themes }},
	}

	groups := make([]domain.FacetGroup, 0, len(dims))
	for _, d := range dims {
		counts := map[string]int{}
		var order []string
		for _, m := range ms {
			for _, v := range d.values(m) {
				if v == "" {
					continue
				}
				if _, seen := counts[v]; !seen {
					order = append(order, v)
				}
				counts[v]++
			}
		}
		facets := make([]domain.Facet, 0, len(order))
		for _, v := range order {
			facets = append(facets, domain.Facet{Name: v, Count: counts[v]})
		}
		sort.SliceStable(facets, func(i, j int) bool { return facets[i].Count > facets[j].Count })
		groups = append(groups, domain.FacetGroup{Name: d.name, Facets: facets})
	}
	return groups
}
