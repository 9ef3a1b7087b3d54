package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"museum_directory/internal/domain"
)

type stubCatalog struct {
	err      error
	criteria domain.SearchCriteria
	radius   float64
}

func (s *stubCatalog) Search(ctx context.Context, c domain.SearchCriteria) (domain.SearchResult, error) {
	s.criteria = c
	if s.err != nil {
		return domain.SearchResult{}, s.err
	}
	return domain.SearchResult{Museums: []domain.Museum{{ID: "M1", Name: "A"}}, TotalCount: 1, Facets: []domain.FacetGroup{}, Origin: domain.OriginMock}, nil
}

func (s *stubCatalog) GetByID(ctx context.Context, id string) (domain.Museum, error) {
	if s.err != nil {
		return domain.Museum{}, s.err
	}
	return domain.Museum{ID: id, Name: "A"}, nil
}

func (s *stubCatalog) GetByLocation(ctx context.Context, lat, lng, r float64) (domain.SearchResult, error) {
	s.radius = r
	return domain.SearchResult{Museums: []domain.Museum{}, Facets: []domain.FacetGroup{}, Origin: domain.OriginLive}, s.err
}

func (s *stubCatalog) GetFacets(ctx context.Context) (domain.FacetSummary, error) {
	return domain.FacetSummary{Groups: []domain.FacetGroup{}, Origin: domain.OriginLive}, s.err
}

func serve(t *testing.T, cat domain.Catalog, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(time.Second)
	srv.MountHandlers(&Handlers{Catalog: cat})
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSearch_ParsesCriteria(t *testing.T) {
	cat := &stubCatalog{}
	rec := serve(t, cat, http.MethodGet, "/v1/museums?q=art&city=Lyon&theme=Histoire&free=true&accessible=1&page=2&rows=5&lat=45.76&lng=4.83&radius=3")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mock", rec.Header().Get(OriginHeader))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	c := cat.criteria
	assert.Equal(t, "art", c.Text)
	assert.Equal(t, "Lyon", c.City)
	assert.Equal(t, "Histoire", c.Theme)
	assert.True(t, c.FreeEntry)
	assert.True(t, c.WheelchairAccessible)
	assert.Equal(t, 2, c.Page)
	assert.Equal(t, 5, c.Rows)
	assert.Equal(t, 3.0, c.RadiusKm)
	require.NotNil(t, c.Coordinates)
	assert.Equal(t, 45.76, c.Coordinates.Lat)
}

func TestSearch_RejectsBadParams(t *testing.T) {
	cases := map[string]string{
		"rows not int":   "/v1/museums?rows=abc",
		"free not bool":  "/v1/museums?free=maybe",
		"lat alone":      "/v1/museums?lat=48",
		"radius is NaN":  "/v1/museums?radius=NaN",
		"nearby missing": "/v1/museums/nearby?lat=48",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, &stubCatalog{}, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewValidationError("rows", "must not be negative"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.NewNotFoundError("M1"), http.StatusNotFound, "NOT_FOUND"},
		{domain.NewNetworkError(errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "NETWORK_ERROR"},
		{domain.NewUpstreamFormatError("records missing"), http.StatusBadGateway, "UPSTREAM_FORMAT_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rec := serve(t, &stubCatalog{err: tc.err}, http.MethodGet, "/v1/museums/M1")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var p problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, tc.code, p.Code)
		assert.NotContains(t, p.Detail, "dial tcp", "upstream details stay server-side")
	}
}

func TestNearby_PassesRadius(t *testing.T) {
	cat := &stubCatalog{}
	rec := serve(t, cat, http.MethodGet, "/v1/museums/nearby?lat=48.86&lng=2.33")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, cat.radius)
}

func TestConditionalGet(t *testing.T) {
	first := serve(t, &stubCatalog{}, http.MethodGet, "/v1/facets")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	srv := New(time.Second)
	srv.MountHandlers(&Handlers{Catalog: &stubCatalog{}})
	req := httptest.NewRequest(http.MethodGet, "/v1/facets", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestFavoritesDisabled(t *testing.T) {
	rec := serve(t, &stubCatalog{}, http.MethodGet, "/v1/favorites")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(t, &stubCatalog{}, http.MethodPut, "/v1/favorites/M1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := serve(t, &stubCatalog{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
