// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"museum_directory/internal/app"
	"museum_directory/internal/domain"
)

// OriginHeader mirrors the provenance flag of catalog answers.
const OriginHeader = "X-Catalog-Origin"

type Handlers struct {
	Catalog domain.Catalog
	// Favorites is nil when no database is configured.
	Favorites *app.FavoritesService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type originLookup interface {
	Lookup(ctx context.Context, id string) (domain.Museum, domain.Origin, error)
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/museums", h.searchMuseums)
		r.Get("/museums/nearby", h.nearbyMuseums)
		r.Get("/museums/{id}", h.getMuseum)
		r.Get("/facets", h.getFacets)

		r.Get("/favorites", h.listFavorites)
		r.Put("/favorites/{id}", h.addFavorite)
		r.Delete("/favorites/{id}", h.removeFavorite)
		r.Post("/favorites/{id}/toggle", h.toggleFavorite)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemCode(w, status, title, "", detail)
}

func writeProblemCode(w http.ResponseWriter, status int, title, code, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Code: code, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the error taxonomy onto HTTP. Only the fixed user message
// is sent; upstream bodies stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", domain.UserMessage(err))
		return
	}
	status, title := http.StatusInternalServerError, "Internal Error"
	switch de.Code {
	case domain.CodeValidation:
		status, title = http.StatusBadRequest, "Invalid Request"
	case domain.CodeNotFound:
		status, title = http.StatusNotFound, "Not Found"
	case domain.CodeNetwork:
		status, title = http.StatusServiceUnavailable, "Catalog Unavailable"
	case domain.CodeUpstreamFormat:
		status, title = http.StatusBadGateway, "Bad Upstream Response"
	}
	if status >= 500 {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("catalog request failed")
	}
	detail := domain.UserMessage(err)
	if de.Code == domain.CodeValidation && de.Details != "" {
		detail = detail + ": " + de.Details
	}
	writeProblemCode(w, status, title, string(de.Code), detail)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 200 with an ETag, or 304 when the client already has it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any, origin domain.Origin) {
	etag, body := calcETagAndBody(v)
	if origin != "" {
		w.Header().Set(OriginHeader, string(origin))
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// ---- catalog ----

func (h *Handlers) searchMuseums(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Catalog.Search(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, res, res.Origin)
}

func (h *Handlers) nearbyMuseums(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		writeError(w, r, domain.NewValidationError("lat/lng", "are required"))
		return
	}
	lat, err1 := parseFloat(q, "lat")
	lng, err2 := parseFloat(q, "lng")
	radius, err3 := parseFloat(q, "radius")
	if err := firstErr(err1, err2, err3); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Catalog.GetByLocation(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, res, res.Origin)
}

func (h *Handlers) getMuseum(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		m      domain.Museum
		origin domain.Origin
		err    error
	)
	if lk, ok := h.Catalog.(originLookup); ok {
		m, origin, err = lk.Lookup(r.Context(), id)
	} else {
		m, err = h.Catalog.GetByID(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, m, origin)
}

func (h *Handlers) getFacets(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Catalog.GetFacets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, sum, sum.Origin)
}

// ---- favorites ----

type toggleResponse struct {
	MuseumID string           `json:"museumId"`
	Favorite bool             `json:"favorite"`
	Entry    *domain.Favorite `json:"entry,omitempty"`
}

func (h *Handlers) favoritesEnabled(w http.ResponseWriter) bool {
	if h.Favorites == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Favorites Disabled", "no favorites store is configured")
		return false
	}
	return true
}

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	if !h.favoritesEnabled(w) {
		return
	}
	out, err := h.Favorites.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out, "")
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.favoritesEnabled(w) {
		return
	}
	f, err := h.Favorites.Add(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, f, "")
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.favoritesEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	removed, err := h.Favorites.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, domain.NewNotFoundError(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.favoritesEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	added, f, err := h.Favorites.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := toggleResponse{MuseumID: id, Favorite: added}
	if added {
		resp.Entry = &f
	}
	writeJSON(w, r, resp, "")
}

// ---- query parsing ----

// criteriaFromQuery reads SearchCriteria from q, region, city, department,
// theme, free, accessible, lat, lng, radius, page and rows.
func criteriaFromQuery(r *http.Request) (domain.SearchCriteria, error) {
	q := r.URL.Query()
	c := domain.SearchCriteria{
		Text:       q.Get("q"),
		Region:     q.Get("region"),
		City:       q.Get("city"),
		Department: q.Get("department"),
		Theme:      q.Get("theme"),
	}
	var err error
	if c.FreeEntry, err = parseBool(q, "free"); err != nil {
		return c, err
	}
	if c.WheelchairAccessible, err = parseBool(q, "accessible"); err != nil {
		return c, err
	}
	if c.Page, err = parseInt(q, "page"); err != nil {
		return c, err
	}
	if c.Rows, err = parseInt(q, "rows"); err != nil {
		return c, err
	}
	if c.RadiusKm, err = parseFloat(q, "radius"); err != nil {
		return c, err
	}

	latS, lngS := q.Get("lat"), q.Get("lng")
	switch {
	case latS == "" && lngS == "":
	case latS == "" || lngS == "":
		return c, domain.NewValidationError("lat/lng", "must be given together")
	default:
		lat, err := parseFloat(q, "lat")
		if err != nil {
			return c, err
		}
		lng, err := parseFloat(q, "lng")
		if err != nil {
			return c, err
		}
		c.Coordinates = &domain.Coordinates{Lat: lat, Lng: lng}
	}
	return c, nil
}

type getter interface{ Get(string) string }

func parseInt(q getter, key string) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.NewValidationError(key, "must be an integer")
	}
	return n, nil
}

func parseFloat(q getter, key string) (float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domain.NewValidationError(key, "must be a number")
	}
	return f, nil
}

func parseBool(q getter, key string) (bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, domain.NewValidationError(key, "must be true or false")
	}
	return b, nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
