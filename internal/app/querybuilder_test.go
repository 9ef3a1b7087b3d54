package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"museum_directory/internal/domain"
)

var (
	v1Opts = QueryOptions{Schema: domain.SchemaRecordsV1, Dataset: "musees-de-france-base-museofile", DefaultRows: 20, MaxRows: 100}
	v2Opts = QueryOptions{Schema: domain.SchemaExploreV2, DefaultRows: 20, MaxRows: 100}
)

func TestBuildQuery_Pagination(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Page: 2, Rows: 20}, v2Opts)
	require.NoError(t, err)

	v := q.Values()
	assert.Equal(t, "20", v.Get("limit"))
	assert.Equal(t, "40", v.Get("offset"))

	q, err = BuildQuery(domain.SearchCriteria{Page: 2, Rows: 20}, v1Opts)
	require.NoError(t, err)
	assert.Equal(t, "20", q.Values().Get("rows"))
	assert.Equal(t, "40", q.Values().Get("start"))
}

func TestBuildQuery_EmptyCriteriaHasNoFilter(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{}, v2Opts)
	require.NoError(t, err)
	assert.Empty(t, q.Where())
	assert.False(t, q.Values().Has("where"))

	q, err = BuildQuery(domain.SearchCriteria{}, v1Opts)
	require.NoError(t, err)
	v := q.Values()
	assert.False(t, v.Has("refine"))
	assert.False(t, v.Has("q"))
	assert.Equal(t, "0", v.Get("start"))
	assert.Equal(t, "20", v.Get("rows"))
}

func TestBuildQuery_BlankFieldsAddNoClause(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Region: "", City: "  ", Text: " "}, v2Opts)
	require.NoError(t, err)
	assert.Empty(t, q.Clauses)
}

func TestBuildQuery_ExploreV2Clauses(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{
		Text:                 "impressionnisme",
		Region:               "Île-de-France",
		Theme:                "Histoire",
		FreeEntry:            true,
		WheelchairAccessible: true,
	}, v2Opts)
	require.NoError(t, err)

	assert.Equal(t,
		`(search(nom_officiel, "impressionnisme") OR search(histoire, "impressionnisme"))`+
			` AND region="Île-de-France"`+
			` AND domaine_thematique="Histoire"`+
			` AND gratuit="Oui"`+
			` AND acces_handicap="Oui"`,
		q.Where())
	assert.Equal(t, "nom_officiel", q.Values().Get("order_by"))
	assert.Contains(t, q.Values().Get("select"), "identifiant")
}

func TestBuildQuery_RecordsV1(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Text: "Louvre", City: "Paris"}, v1Opts)
	require.NoError(t, err)

	v := q.Values()
	assert.Equal(t, "Louvre", v.Get("q"))
	assert.Equal(t, `ville="Paris"`, v.Get("refine"))
	assert.Equal(t, "musees-de-france-base-museofile", v.Get("dataset"))
	assert.Equal(t, []string{"domaine_thematique", "region", "ville", "departement"}, v["facet"])
}

func TestBuildQuery_MappedThemeExpandsToUpstreamLabels(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Theme: "Art"}, v2Opts)
	require.NoError(t, err)

	assert.Equal(t, `(domaine_thematique="Beaux-arts" OR domaine_thematique="Art moderne" OR `+
		`domaine_thematique="Art contemporain" OR domaine_thematique="Arts décoratifs" OR `+
		`domaine_thematique="Art religieux")`, q.Where())
	assert.Empty(t, q.ClientTheme)
}

func TestBuildQuery_UnmappedThemeIsClientSide(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Theme: "Marine"}, v2Opts)
	require.NoError(t, err)

	assert.Empty(t, q.Clauses)
	assert.Equal(t, "Marine", q.ClientTheme)
}

func TestBuildQuery_EscapesInjection(t *testing.T) {
	q, err := BuildQuery(domain.SearchCriteria{Region: `Paris" OR 1=1 OR region="x`}, v2Opts)
	require.NoError(t, err)

	require.Len(t, q.Clauses, 1)
	assert.Equal(t, `region="Paris\" OR 1=1 OR region=\"x"`, q.Clauses[0])

	q, err = BuildQuery(domain.SearchCriteria{City: `C:\ "x"`}, v2Opts)
	require.NoError(t, err)
	assert.Equal(t, `ville="C:\\ \"x\""`, q.Clauses[0])
}

func TestBuildQuery_Geo(t *testing.T) {
	c := domain.SearchCriteria{Coordinates: &domain.Coordinates{Lat: 48.8606, Lng: 2.3376}, RadiusKm: 2.5}

	q, err := BuildQuery(c, v2Opts)
	require.NoError(t, err)
	assert.Equal(t, `within_distance(coordonnees, geom'POINT(2.3376 48.8606)', 2.5km)`, q.Where())
	assert.Equal(t, `distance(coordonnees, geom'POINT(2.3376 48.8606)')`, q.Values().Get("order_by"))

	q, err = BuildQuery(c, v1Opts)
	require.NoError(t, err)
	assert.Equal(t, "48.8606,2.3376,2500", q.Values().Get("geofilter.distance"))
	assert.Equal(t, "dist", q.Values().Get("sort"))

	c.RadiusKm = 0
	q, err = BuildQuery(c, v1Opts)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRadiusKm, q.Geo.RadiusKm)
}

func TestBuildQuery_RowsClamp(t *testing.T) {
	cases := []struct {
		name      string
		opts      QueryOptions
		requested int
		want      int
	}{
		{"default", v2Opts, 0, 20},
		{"requested", v2Opts, 35, 35},
		{"configured ceiling", QueryOptions{Schema: domain.SchemaExploreV2, MaxRows: 50}, 80, 50},
		{"hard ceiling", QueryOptions{Schema: domain.SchemaExploreV2, MaxRows: 1000}, 500, HardMaxRows},
		{"unset options", QueryOptions{Schema: domain.SchemaExploreV2}, 0, 20},
		{"default above ceiling", QueryOptions{Schema: domain.SchemaExploreV2, DefaultRows: 60, MaxRows: 30}, 0, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := BuildQuery(domain.SearchCriteria{Rows: tc.requested}, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Limit)
		})
	}
}

func TestBuildQuery_Validation(t *testing.T) {
	cases := map[string]domain.SearchCriteria{
		"negative rows":   {Rows: -1},
		"negative page":   {Page: -3},
		"negative radius": {RadiusKm: -1},
		"latitude":        {Coordinates: &domain.Coordinates{Lat: 120, Lng: 0}},
		"longitude":       {Coordinates: &domain.Coordinates{Lat: 0, Lng: -181}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildQuery(c, v2Opts)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}

func TestByIDQuery(t *testing.T) {
	assert.Equal(t, `identifiant="M0001"`, ByIDQuery("M0001", v2Opts).Values().Get("where"))
	assert.Equal(t, `recordid:"a\"b"`, ByIDQuery(`a"b`, v1Opts).Values().Get("q"))
}

func TestFacetQuery(t *testing.T) {
	v := FacetQuery(v1Opts).Values()
	assert.Equal(t, "0", v.Get("rows"))
	assert.Len(t, v["facet"], len(facetDimensions))
}
