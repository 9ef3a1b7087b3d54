package app

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"museum_directory/internal/domain"
)

// IDSource synthesizes identifiers for records that carry none.
type IDSource interface {
	NewID() string
}

// UUIDSource yields time-ordered random identifiers (UUIDv7).
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "gen-" + uuid.NewString()
	}
	return "gen-" + id.String()
}

// Normalizer maps upstream records of one configured schema version to the
// canonical Museum. It never fails: missing or malformed data degrades to the
// documented defaults.
type Normalizer struct {
	schema domain.SchemaVersion
	ids    IDSource
}

func NewNormalizer(schema domain.SchemaVersion, ids IDSource) *Normalizer {
	if ids == nil {
		ids = UUIDSource{}
	}
	return &Normalizer{schema: schema, ids: ids}
}

func (n *Normalizer) Schema() domain.SchemaVersion { return n.schema }

// sources returns the maps aliases are resolved against, in priority order.
func (n *Normalizer) sources(record map[string]any) []map[string]any {
	switch n.schema {
	case domain.SchemaRecordsV1:
		fields, _ := record["fields"].(map[string]any)
		if fields == nil {
			return []map[string]any{record}
		}
		// recordid and record_timestamp live next to fields
		return []map[string]any{fields, record}
	default:
		return []map[string]any{record}
	}
}

func (n *Normalizer) Normalize(record map[string]any) domain.Museum {
	src := n.sources(record)

	name := firstNonEmptyAlias(src, "name")
	city := firstNonEmptyAlias(src, "city")
	region := firstNonEmptyAlias(src, "region")
	if name == "" && city == "" && region == "" {
		log.Debug().Str("schema", string(n.schema)).Msg("record without name, city or region")
	}

	m := domain.Museum{
		ID:                   firstNonEmptyAlias(src, "id"),
		Name:                 orDefault(name, domain.UnknownName),
		Description:          firstNonEmptyAlias(src, "description"),
		Address:              firstNonEmptyAlias(src, "address"),
		City:                 orDefault(city, domain.UnknownCity),
		Region:               orDefault(region, domain.UnknownRegion),
		PostalCode:           firstNonEmptyAlias(src, "postal_code"),
		Department:           firstNonEmptyAlias(src, "department"),
		Themes:               []string{},
		FreeEntry:            matchRules(src, freeEntryRules),
		WheelchairAccessible: matchRules(src, wheelchairRules),
		OpeningHours:         firstNonEmptyAlias(src, "hours"),
		Pricing:              firstNonEmptyAlias(src, "pricing"),
		Website:              firstNonEmptyAlias(src, "website"),
		Phone:                firstNonEmptyAlias(src, "phone"),
		Email:                firstNonEmptyAlias(src, "email"),
		LastUpdated:          firstNonEmptyAlias(src, "last_updated"),
	}
	if m.ID == "" {
		m.ID = n.ids.NewID()
	}
	if c, ok := firstParsedAlias(src, "coordinates", coordinatesOf); ok {
		m.Coordinates = c
	}
	if t, ok := firstParsedAlias(src, "themes", themesOf); ok {
		m.Themes = t
	}
	if img := firstNonEmptyAlias(src, "image"); img != "" {
		m.Image = &img
	}
	if f, ok := firstParsedAlias(src, "rating", parseFloatFlexible); ok {
		m.Rating = &f
	}
	return m
}

// NormalizeAll keeps input order; one Museum per record.
func (n *Normalizer) NormalizeAll(records []map[string]any) []domain.Museum {
	out := make([]domain.Museum, 0, len(records))
	for _, r := range records {
		out = append(out, n.Normalize(r))
	}
	return out
}

func coordinatesOf(v any) (*domain.Coordinates, bool) {
	c := parseCoordinates(v)
	return c, c != nil
}

func themesOf(v any) ([]string, bool) {
	t := parseThemes(v)
	return t, len(t) > 0
}

// parseThemes wraps a scalar into a one-element list and passes lists through.
func parseThemes(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// parseCoordinates accepts [lat, lng], {lat, lng|lon} or "lat,lng". Anything
// short of two parseable in-range axes yields nil.
func parseCoordinates(v any) *domain.Coordinates {
	var latRaw, lngRaw any
	switch t := v.(type) {
	case []any:
		if len(t) != 2 {
			return nil
		}
		latRaw, lngRaw = t[0], t[1]
	case []float64:
		if len(t) != 2 {
			return nil
		}
		latRaw, lngRaw = t[0], t[1]
	case map[string]any:
		latRaw = t["lat"]
		if lng, ok := t["lng"]; ok {
			lngRaw = lng
		} else {
			lngRaw = t["lon"]
		}
	case string:
		parts := strings.Split(t, ",")
		if len(parts) != 2 {
			return nil
		}
		latRaw, lngRaw = parts[0], parts[1]
	default:
		return nil
	}

	lat, ok := parseFloatFlexible(latRaw)
	if !ok {
		return nil
	}
	lng, ok := parseFloatFlexible(lngRaw)
	if !ok {
		return nil
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}
	return &domain.Coordinates{Lat: lat, Lng: lng}
}
