package domain

// SchemaVersion selects which upstream field-naming convention and response
// envelope a request assumes. It is configured, never inferred from payloads.
type SchemaVersion string

const (
	// SchemaRecordsV1 is the legacy records/1.0 search API: records[].fields, nhits, facet_groups.
	SchemaRecordsV1 SchemaVersion = "records-v1"
	// SchemaExploreV2 is the explore v2.1 API: flat results[], total_count.
	SchemaExploreV2 SchemaVersion = "explore-v2"
)

func (v SchemaVersion) Valid() bool {
	return v == SchemaRecordsV1 || v == SchemaExploreV2
}

// DefaultRadiusKm is used by proximity searches that do not carry a radius.
const DefaultRadiusKm = 10.0

// SearchCriteria is built per request and never mutated during a query.
// Page is zero-based; Rows == 0 means the configured default page size.
type SearchCriteria struct {
	Text                 string       `json:"text,omitempty"`
	Region               string       `json:"region,omitempty"`
	City                 string       `json:"city,omitempty"`
	Department           string       `json:"department,omitempty"`
	Theme                string       `json:"theme,omitempty"`
	FreeEntry            bool         `json:"freeEntry,omitempty"`
	WheelchairAccessible bool         `json:"wheelchairAccessible,omitempty"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
	RadiusKm             float64      `json:"radiusKm,omitempty"`
	Page                 int          `json:"page"`
	Rows                 int          `json:"rows"`
}

// Validate rejects malformed criteria before any network call.
func (c SearchCriteria) Validate() error {
	switch {
	case c.Rows < 0:
		return NewValidationError("rows", "must not be negative")
	case c.Page < 0:
		return NewValidationError("page", "must not be negative")
	case c.RadiusKm < 0:
		return NewValidationError("radiusKm", "must not be negative")
	}
	if c.Coordinates != nil {
		if c.Coordinates.Lat < -90 || c.Coordinates.Lat > 90 {
			return NewValidationError("coordinates.lat", "must be within [-90, 90]")
		}
		if c.Coordinates.Lng < -180 || c.Coordinates.Lng > 180 {
			return NewValidationError("coordinates.lng", "must be within [-180, 180]")
		}
	}
	return nil
}

// Radius returns the effective proximity radius.
func (c SearchCriteria) Radius() float64 {
	if c.RadiusKm > 0 {
		return c.RadiusKm
	}
	return DefaultRadiusKm
}
