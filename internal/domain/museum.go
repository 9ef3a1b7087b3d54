package domain

import "time"

// Sentinel display values used when upstream leaves an always-present field empty.
const (
	UnknownName   = "Nom non disponible"
	UnknownCity   = "Ville non disponible"
	UnknownRegion = "Région non disponible"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Museum is the canonical, schema-version-independent museum entity.
// ID, Name, City and Region are never empty.
type Museum struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description"`
	Address              string       `json:"address"`
	City                 string       `json:"city"`
	Region               string       `json:"region"`
	PostalCode           string       `json:"postalCode"`
	Department           string       `json:"department"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
	Themes               []string     `json:"themes"`
	FreeEntry            bool         `json:"freeEntry"`
	WheelchairAccessible bool         `json:"wheelchairAccessible"`
	Rating               *float64     `json:"rating,omitempty"`
	OpeningHours         string       `json:"openingHours,omitempty"`
	Pricing              string       `json:"pricing,omitempty"`
	Website              string       `json:"website,omitempty"`
	Phone                string       `json:"phone,omitempty"`
	Email                string       `json:"email,omitempty"`
	Image                *string      `json:"image,omitempty"`
	LastUpdated          string       `json:"lastUpdated,omitempty"`
}

// Origin tells consumers where a result came from. Mock data differs
// materially from the live catalog, so it is always surfaced.
type Origin string

const (
	OriginLive Origin = "live"
	OriginMock Origin = "mock"
)

type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type FacetGroup struct {
	Name   string  `json:"name"`
	Facets []Facet `json:"facets"`
}

// Facet dimension names exposed to consumers.
const (
	FacetRegion     = "region"
	FacetCity       = "city"
	FacetDepartment = "department"
	FacetTheme      = "theme"
)

type SearchResult struct {
	Museums    []Museum     `json:"museums"`
	TotalCount int          `json:"totalCount"`
	Facets     []FacetGroup `json:"facets"`
	Origin     Origin       `json:"origin"`
}

// FacetSummary is the answer to a facet request. Exhaustive is false when
// counts come from a static enumeration rather than an aggregation.
type FacetSummary struct {
	Groups     []FacetGroup `json:"groups"`
	Origin     Origin       `json:"origin"`
	Exhaustive bool         `json:"exhaustive"`
}

type Favorite struct {
	MuseumID string    `json:"museumId"`
	Museum   Museum    `json:"museum"`
	AddedAt  time.Time `json:"addedAt"`
}
