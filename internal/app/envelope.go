package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"museum_directory/internal/domain"
)

// Minimal top-level contracts per schema version. Anything failing them is an
// UpstreamFormatError; record contents are left to the normalizer.
const recordsV1Schema = `{
  "type": "object",
  "required": ["records"],
  "properties": {
    "nhits": {"type": "integer", "minimum": 0},
    "records": {"type": "array", "items": {"type": "object"}},
    "facet_groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "facets"],
        "properties": {
          "name": {"type": "string"},
          "facets": {"type": "array", "items": {"type": "object", "required": ["name"]}}
        }
      }
    }
  }
}`

const exploreV2Schema = `{
  "type": "object",
  "required": ["results"],
  "properties": {
    "total_count": {"type": "integer", "minimum": 0},
    "results": {"type": "array", "items": {"type": "object"}}
  }
}`

var envelopeSchemas = map[domain.SchemaVersion]*gojsonschema.Schema{
	domain.SchemaRecordsV1: mustSchema(recordsV1Schema),
	domain.SchemaExploreV2: mustSchema(exploreV2Schema),
}

func mustSchema(s string) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("envelope schema: %v", err))
	}
	return sch
}

// envelope is the schema-independent view of one upstream response.
type envelope struct {
	Records []map[string]any
	Total   *int
	Facets  []domain.FacetGroup
}

type recordsV1Body struct {
	NHits       *int             `json:"nhits"`
	Records     []map[string]any `json:"records"`
	FacetGroups []struct {
		Name   string `json:"name"`
		Facets []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"facets"`
	} `json:"facet_groups"`
}

type exploreV2Body struct {
	TotalCount *int             `json:"total_count"`
	Results    []map[string]any `json:"results"`
}

// decodeEnvelope validates and decodes a response body for the given schema.
func decodeEnvelope(schema domain.SchemaVersion, body []byte) (envelope, error) {
	sch, ok := envelopeSchemas[schema]
	if !ok {
		return envelope{}, domain.NewUpstreamFormatError(fmt.Sprintf("unknown schema version %q", schema))
	}
	res, err := sch.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return envelope{}, domain.NewUpstreamFormatError("response is not JSON")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return envelope{}, domain.NewUpstreamFormatError(strings.Join(msgs, "; "))
	}

	switch schema {
	case domain.SchemaExploreV2:
		var b exploreV2Body
		if err := json.Unmarshal(body, &b); err != nil {
			return envelope{}, domain.NewUpstreamFormatError(err.Error())
		}
		return envelope{Records: b.Results, Total: b.TotalCount}, nil
	default:
		var b recordsV1Body
		if err := json.Unmarshal(body, &b); err != nil {
			return envelope{}, domain.NewUpstreamFormatError(err.Error())
		}
		env := envelope{Records: b.Records, Total: b.NHits}
		for _, g := range b.FacetGroups {
			group := domain.FacetGroup{Name: canonicalFacetName(g.Name), Facets: make([]domain.Facet, 0, len(g.Facets))}
			for _, f := range g.Facets {
				group.Facets = append(group.Facets, domain.Facet{Name: f.Name, Count: f.Count})
			}
			env.Facets = append(env.Facets, group)
		}
		return env, nil
	}
}

func canonicalFacetName(upstream string) string {
	for _, d := range facetDimensions {
		if d.Upstream == upstream {
			return d.Name
		}
	}
	return upstream
}
