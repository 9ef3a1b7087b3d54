// Package geo holds the great-circle math used by proximity searches.
package geo

import (
	"math"
	"sort"

	"museum_directory/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two WGS84 points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// WithinRadius keeps museums at distance <= radiusKm from (lat, lng), nearest
// first. Museums without coordinates are dropped; ties keep input order.
func WithinRadius(in []domain.Museum, lat, lng, radiusKm float64) []domain.Museum {
	type hit struct {
		m domain.Museum
		d float64
	}
	hits := make([]hit, 0, len(in))
	for _, m := range in {
		if m.Coordinates == nil {
			continue
		}
		d := DistanceKm(lat, lng, m.Coordinates.Lat, m.Coordinates.Lng)
		if d <= radiusKm {
			hits = append(hits, hit{m: m, d: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].d < hits[j].d })

	out := make([]domain.Museum, len(hits))
	for i, h := range hits {
		out[i] = h.m
	}
	return out
}
