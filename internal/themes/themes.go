// Package themes holds the simplified theme vocabulary and its mapping onto
// upstream domaine_thematique labels.
package themes

import (
	"sort"
	"strings"

	"museum_directory/internal/textnorm"
)

// themeVocabulary maps the simplified theme names offered to users onto the
// verbose domaine_thematique values used by the upstream catalog. It only
// drives outbound filters; inbound records keep their upstream labels.
var themeVocabulary = map[string][]string{
	"Archéologie":  {"Archéologie"},
	"Architecture": {"Architecture"},
	"Art":          {"Beaux-arts", "Art moderne", "Art contemporain", "Arts décoratifs", "Art religieux"},
	"Ethnologie":   {"Ethnologie", "Traditions populaires"},
	"Histoire":     {"Histoire"},
	"Sciences":     {"Histoire naturelle", "Sciences et techniques", "Techniques"},
	"Technique":    {"Sciences et techniques", "Techniques"},
}

// Upstream resolves a simplified theme. ok is false for unmapped input,
// in which case no server-side theme filter applies and callers fall back to
// client-side matching.
func Upstream(theme string) (labels []string, ok bool) {
	labels, ok = themeVocabulary[strings.TrimSpace(theme)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), labels...), true
}

// Matches is the client-side theme test. A mapped theme matches museums
// carrying the theme itself or one of its upstream labels. An unmapped theme
// is matched as accent-insensitive text against the labels, name and description.
func Matches(theme string, labels []string, name, description string) bool {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return true
	}
	if upstream, ok := Upstream(theme); ok {
		want := map[string]struct{}{theme: {}}
		for _, l := range upstream {
			want[l] = struct{}{}
		}
		for _, l := range labels {
			if _, hit := want[l]; hit {
				return true
			}
		}
		return false
	}

	for _, l := range labels {
		if textnorm.Contains(l, theme) {
			return true
		}
	}
	return textnorm.Contains(name, theme) || textnorm.Contains(description, theme)
}

// Names lists the simplified themes that have an upstream mapping, sorted.
func Names() []string {
	out := make([]string, 0, len(themeVocabulary))
	for k := range themeVocabulary {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
