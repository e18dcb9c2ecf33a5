package service

import (
	"regexp"
	"strings"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// countryMarker ties a destination to the national document terminology a
// plausible checklist must use. A study checklist for the US that never
// mentions an I-20 was almost certainly hallucinated for the wrong country.
type countryMarker struct {
	// anyOf passes when at least one term appears somewhere in the
	// checklist text.
	anyOf []string
	// studyOnly restricts the marker to study visas.
	studyOnly bool
}

var countryMarkers = map[string][]countryMarker{
	"US": {
		{anyOf: []string{"i-20", "ds-2019"}, studyOnly: true},
		{anyOf: []string{"ds-160"}},
	},
	"GB": {
		{anyOf: []string{"cas"}, studyOnly: true},
	},
	"CA": {
		{anyOf: []string{"letter of acceptance", "loa"}, studyOnly: true},
	},
	"AU": {
		{anyOf: []string{"confirmation of enrolment", "coe"}, studyOnly: true},
	},
}

// missingMarkers returns the marker groups expected for the pair that the
// checklist text does not mention. Each entry is the first term of the
// missing group, for use in a validation message.
func missingMarkers(countryCode, visaType, checklistText string) []string {
	markers, ok := countryMarkers[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return nil
	}
	text := strings.ToLower(checklistText)
	var missing []string
	for _, m := range markers {
		if m.studyOnly && !isStudentVisa(visaType) {
			continue
		}
		found := false
		for _, term := range m.anyOf {
			if strings.Contains(text, term) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, m.anyOf[0])
		}
	}
	return missing
}

// enrollmentTerms ties acceptance-letter wording to one destination's
// national form. Matching is whole-word; "cas" must not fire inside
// unrelated words.
var enrollmentTerms = map[string][]string{
	"US": {"i-20", "ds-2019"},
	"GB": {"cas"},
	"CA": {"letter of acceptance", "loa", "caq"},
	"AU": {"confirmation of enrolment", "coe"},
}

var enrollmentTermPatterns = func() map[string][]*regexp.Regexp {
	patterns := make(map[string][]*regexp.Regexp, len(enrollmentTerms))
	for country, terms := range enrollmentTerms {
		for _, term := range terms {
			patterns[country] = append(patterns[country],
				regexp.MustCompile(`\b`+regexp.QuoteMeta(term)+`\b`))
		}
	}
	return patterns
}()

// normalizeTerminology rewrites acceptance-letter style items whose wording
// belongs to a different destination, e.g. an I-20 item on a Canada
// checklist becomes the Letter of Acceptance. The documentType is never
// touched; it is the join key for uploads.
func normalizeTerminology(items []domain.ChecklistItem, countryCode string) {
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	replacement := enrollmentProofRule(country)

	for i := range items {
		item := &items[i]
		text := strings.ToLower(item.Name + " " + item.Description)
		if !mentionsForeignEnrollment(text, country) {
			continue
		}
		if replacement != nil {
			item.Name = replacement.Name
			item.Description = replacement.Description
			if replacement.HowToObtain != "" {
				item.HowToObtain = replacement.HowToObtain
			}
		} else {
			item.Name = "Acceptance Letter"
			item.Description = "Official admission letter from the educational institution."
			item.HowToObtain = "Issued by the admissions office after enrollment."
		}
	}
}

// mentionsForeignEnrollment reports whether the text uses another country's
// enrollment vocabulary.
func mentionsForeignEnrollment(text, country string) bool {
	for other, patterns := range enrollmentTermPatterns {
		if other == country {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(text) {
				return true
			}
		}
	}
	return false
}
