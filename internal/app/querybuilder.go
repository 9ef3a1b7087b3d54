package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"museum_directory/internal/domain"
	"museum_directory/internal/themes"
)

// Upstream field names used in filter clauses and facet requests.
const (
	fieldID         = "identifiant"
	fieldName       = "nom_officiel"
	fieldHistory    = "histoire"
	fieldRegion     = "region"
	fieldCity       = "ville"
	fieldDepartment = "departement"
	fieldTheme      = "domaine_thematique"
	fieldFree       = "gratuit"
	fieldAccess     = "acces_handicap"
	fieldGeo        = "coordonnees"
)

// HardMaxRows protects the upstream service whatever the configuration says.
const HardMaxRows = 100

// upstream facet dimension -> canonical facet name
var facetDimensions = []struct{ Upstream, Name string }{
	{fieldTheme, domain.FacetTheme},
	{fieldRegion, domain.FacetRegion},
	{fieldCity, domain.FacetCity},
	{fieldDepartment, domain.FacetDepartment},
}

var selectFields = []string{
	fieldID, fieldName, fieldHistory, "atout", "adresse", fieldCity, "code_postal",
	fieldRegion, fieldDepartment, fieldTheme, fieldGeo, fieldFree, fieldAccess,
	"telephone", "url", "courriel", "horaires", "tarifs", "image", "date_de_mise_a_jour",
}

type QueryOptions struct {
	Schema      domain.SchemaVersion
	Dataset     string
	DefaultRows int
	MaxRows     int
}

func (o QueryOptions) rows(requested int) int {
	ceiling := o.MaxRows
	if ceiling <= 0 || ceiling > HardMaxRows {
		ceiling = HardMaxRows
	}
	def := o.DefaultRows
	if def <= 0 {
		def = 20
	}
	if def > ceiling {
		def = ceiling
	}
	switch {
	case requested == 0:
		return def
	case requested > ceiling:
		return ceiling
	}
	return requested
}

type GeoFilter struct {
	Lat, Lng, RadiusKm float64
}

// Query is the upstream representation of one request. It is a plain value;
// Values renders it for the configured schema version.
type Query struct {
	Schema  domain.SchemaVersion
	Dataset string
	// Text is the free-text query (records-v1 only; explore-v2 folds it into Clauses).
	Text    string
	Clauses []string
	Limit   int
	Offset  int
	Sort    string
	Facets  []string
	Fields  []string
	Geo     *GeoFilter
	// ClientTheme is set when the requested theme has no upstream mapping and
	// must be matched on the normalized records instead.
	ClientTheme string
}

// Where joins the per-field predicates with AND; "" when there are none.
func (q Query) Where() string { return strings.Join(q.Clauses, " AND ") }

func (q Query) Values() url.Values {
	v := url.Values{}
	switch q.Schema {
	case domain.SchemaExploreV2:
		if w := q.Where(); w != "" {
			v.Set("where", w)
		}
		v.Set("limit", strconv.Itoa(q.Limit))
		v.Set("offset", strconv.Itoa(q.Offset))
		if q.Sort != "" {
			v.Set("order_by", q.Sort)
		}
		if len(q.Fields) > 0 {
			v.Set("select", strings.Join(q.Fields, ","))
		}
	default:
		if q.Dataset != "" {
			v.Set("dataset", q.Dataset)
		}
		if q.Text != "" {
			v.Set("q", q.Text)
		}
		if w := q.Where(); w != "" {
			v.Set("refine", w)
		}
		v.Set("rows", strconv.Itoa(q.Limit))
		v.Set("start", strconv.Itoa(q.Offset))
		if q.Sort != "" {
			v.Set("sort", q.Sort)
		}
		for _, f := range q.Facets {
			v.Add("facet", f)
		}
		if q.Geo != nil {
			v.Set("geofilter.distance", fmt.Sprintf("%s,%s,%s",
				num(q.Geo.Lat), num(q.Geo.Lng), num(q.Geo.RadiusKm*1000)))
		}
	}
	return v
}

// BuildQuery translates criteria into the upstream query. It is pure and
// rejects malformed criteria with a ValidationError.
func BuildQuery(c domain.SearchCriteria, o QueryOptions) (Query, error) {
	if err := c.Validate(); err != nil {
		return Query{}, err
	}
	rows := o.rows(c.Rows)
	q := Query{
		Schema:  o.Schema,
		Dataset: o.Dataset,
		Limit:   rows,
		Offset:  c.Page * rows,
		Sort:    fieldName,
	}

	if text := strings.TrimSpace(c.Text); text != "" {
		if o.Schema == domain.SchemaExploreV2 {
			q.Clauses = append(q.Clauses, fmt.Sprintf("(search(%s, %s) OR search(%s, %s))",
				fieldName, quote(text), fieldHistory, quote(text)))
		} else {
			q.Text = text
		}
	}
	q.Clauses = appendEq(q.Clauses, fieldRegion, c.Region)
	q.Clauses = appendEq(q.Clauses, fieldCity, c.City)
	q.Clauses = appendEq(q.Clauses, fieldDepartment, c.Department)

	if theme := strings.TrimSpace(c.Theme); theme != "" {
		if labels, ok := themes.Upstream(theme); ok {
			q.Clauses = append(q.Clauses, anyOf(fieldTheme, labels))
		} else {
			q.ClientTheme = theme
		}
	}
	if c.FreeEntry {
		q.Clauses = append(q.Clauses, eq(fieldFree, "Oui"))
	}
	if c.WheelchairAccessible {
		q.Clauses = append(q.Clauses, eq(fieldAccess, "Oui"))
	}

	if c.Coordinates != nil {
		q.Geo = &GeoFilter{Lat: c.Coordinates.Lat, Lng: c.Coordinates.Lng, RadiusKm: c.Radius()}
		if o.Schema == domain.SchemaExploreV2 {
			q.Clauses = append(q.Clauses, fmt.Sprintf("within_distance(%s, %s, %skm)",
				fieldGeo, point(q.Geo.Lat, q.Geo.Lng), num(q.Geo.RadiusKm)))
			q.Sort = fmt.Sprintf("distance(%s, %s)", fieldGeo, point(q.Geo.Lat, q.Geo.Lng))
		} else {
			q.Sort = "dist"
		}
	}

	if o.Schema == domain.SchemaExploreV2 {
		q.Fields = selectFields
	} else {
		for _, d := range facetDimensions {
			q.Facets = append(q.Facets, d.Upstream)
		}
	}
	return q, nil
}

// ByIDQuery selects a single record by its upstream identifier.
func ByIDQuery(id string, o QueryOptions) Query {
	q := Query{Schema: o.Schema, Dataset: o.Dataset, Limit: 1}
	if o.Schema == domain.SchemaExploreV2 {
		q.Clauses = []string{eq(fieldID, id)}
		q.Fields = selectFields
	} else {
		q.Text = "recordid:" + quote(id)
	}
	return q
}

// FacetQuery asks the records-v1 API for facet aggregations only.
func FacetQuery(o QueryOptions) Query {
	q := Query{Schema: o.Schema, Dataset: o.Dataset, Limit: 0}
	for _, d := range facetDimensions {
		q.Facets = append(q.Facets, d.Upstream)
	}
	return q
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote renders a string literal of the clause language.
func quote(s string) string { return `"` + quoteEscaper.Replace(s) + `"` }

func eq(field, value string) string { return field + "=" + quote(value) }

func appendEq(clauses []string, field, value string) []string {
	if value = strings.TrimSpace(value); value == "" {
		return clauses
	}
	return append(clauses, eq(field, value))
}

func anyOf(field string, values []string) string {
	if len(values) == 1 {
		return eq(field, values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = eq(field, v)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func point(lat, lng float64) string {
	return fmt.Sprintf("geom'POINT(%s %s)'", num(lng), num(lat))
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
