package app

import (
	"strconv"
	"strings"
)

/********** alias registry (single source of truth) **********/

// Upstream key names per canonical field, highest priority first. The lists
// cover the museofile legacy dataset, the base-museofile records API and the
// explore v2 flat records.
var museumAliases = map[string][]string{
	"id":           {"recordid", "identifiant", "ref_musee", "id_musee", "museofile", "id"},
	"name":         {"nom_officiel", "nom_officiel_du_musee", "nom_du_musee", "nom"},
	"description":  {"description", "histoire", "historique", "atout"},
	"address":      {"adresse", "adresse_postale", "adr"},
	"city":         {"ville", "commune", "com"},
	"region":       {"region", "nom_region", "reg"},
	"postal_code":  {"code_postal", "cp"},
	"department":   {"departement", "nom_departement", "dep"},
	"themes":       {"domaine_thematique", "thematique", "themes"},
	"coordinates":  {"coordonnees", "coordonnees_geographiques", "geolocalisation", "geo_point_2d", "location"},
	"phone":        {"telephone", "tel"},
	"website":      {"url", "site_web", "site_internet"},
	"email":        {"email", "courriel"},
	"hours":        {"horaires", "horaires_d_ouverture"},
	"pricing":      {"tarifs", "tarif"},
	"image":        {"image", "photo", "illustration"},
	"rating":       {"note", "rating"},
	"last_updated": {"date_de_mise_a_jour", "date_maj", "record_timestamp"},
}

// boolRule matches one upstream signal. Exactly one of Equals / Contains is set.
// Equals is a case-sensitive token (a JSON true also matches it); Contains is
// tested case-insensitively against free text.
type boolRule struct {
	Path     string
	Equals   string
	Contains string
}

var freeEntryRules = []boolRule{
	{Path: "gratuit", Equals: "Oui"},
	{Path: "entree_gratuite", Equals: "Oui"},
	{Path: "tarifs", Contains: "entrée gratuite"},
	{Path: "tarifs", Contains: "gratuit pour tous"},
}

var wheelchairRules = []boolRule{
	{Path: "acces_handicap", Equals: "Oui"},
	{Path: "accessibilite", Equals: "Oui"},
	{Path: "label_tourisme_handicap", Contains: "moteur"},
	{Path: "accessibilite", Contains: "fauteuil"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the trimmed string (or number rendered as text) at path, or "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstNonEmptyAlias walks the sources in order and returns the first
// non-empty string among the aliases of key.
func firstNonEmptyAlias(sources []map[string]any, key string) string {
	for _, p := range museumAliases[key] {
		for _, src := range sources {
			if s := lookupStr(src, p); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstParsedAlias walks the aliases of key like firstNonEmptyAlias and
// returns the first raw value parse accepts. Blank or malformed values under
// a higher-priority alias do not hide a usable one further down.
func firstParsedAlias[T any](sources []map[string]any, key string, parse func(any) (T, bool)) (T, bool) {
	for _, p := range museumAliases[key] {
		for _, src := range sources {
			v := lookupAny(src, p)
			if v == nil {
				continue
			}
			if out, ok := parse(v); ok {
				return out, true
			}
		}
	}
	var zero T
	return zero, false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseFloatFlexible: float64 / int / numeric string ("48,86" accepted).
func parseFloatFlexible(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func matchRules(sources []map[string]any, rules []boolRule) bool {
	for _, r := range rules {
		for _, src := range sources {
			if r.match(lookupAny(src, r.Path)) {
				return true
			}
		}
	}
	return false
}

func (r boolRule) match(v any) bool {
	switch t := v.(type) {
	case string:
		if r.Equals != "" {
			return t == r.Equals
		}
		return r.Contains != "" && strings.Contains(strings.ToLower(t), r.Contains)
	case bool:
		return r.Equals != "" && t
	}
	return false
}
