package service

import (
	"strings"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// Static checklist tables used when no rule set exists for a pair. These are
// the last deterministic layer before the generic default: curated, not
// exhaustive, and country wording is intentionally conservative.

const defaultCountryCode = "US"

// baseDocumentRules are the rules every visa application shares regardless
// of destination. Conditions gate the situational entries.
func baseDocumentRules() []domain.RequiredDocumentRule {
	return []domain.RequiredDocumentRule{
		{
			DocumentType: "passport",
			Name:         "Valid Passport",
			Description:  "Passport valid for at least 6 months beyond the intended stay, with at least two blank pages.",
			HowToObtain:  "Issued by the passport authority of your country of citizenship.",
			Category:     domain.CategoryRequired,
		},
		{
			DocumentType: "application_form",
			Name:         "Visa Application Form",
			Description:  "Completed and signed visa application form.",
			HowToObtain:  "Fill in online or at the consulate, then print and sign.",
			Category:     domain.CategoryRequired,
		},
		{
			DocumentType: "photo",
			Name:         "Passport Photo",
			Description:  "Recent passport-size photo meeting the embassy's biometric requirements.",
			HowToObtain:  "Any photo studio offering visa photos.",
			Category:     domain.CategoryRequired,
		},
		{
			DocumentType:     "financial_proof",
			Name:             "Proof of Funds",
			Description:      "Bank statements covering the last 3 months showing sufficient funds for the trip.",
			HowToObtain:      "Request stamped statements from your bank.",
			Category:         domain.CategoryRequired,
			MinHistoryMonths: 3,
		},
		{
			DocumentType: "sponsor_letter",
			Name:         "Sponsorship Letter",
			Description:  "Letter from your sponsor confirming financial support, with the sponsor's own proof of funds.",
			HowToObtain:  "Written and signed by the sponsor.",
			Category:     domain.CategoryRequired,
			Condition:    "sponsorType !== 'self'",
		},
		{
			DocumentType: "employment_certificate",
			Name:         "Employment Certificate",
			Description:  "Letter from your employer stating position, salary and approved leave.",
			HowToObtain:  "Request from your HR department.",
			Category:     domain.CategoryHighlyRecommended,
			Condition:    "employmentStatus === 'employed'",
		},
		{
			DocumentType: "travel_insurance",
			Name:         "Travel Insurance",
			Description:  "Medical insurance covering the full period of stay.",
			HowToObtain:  "Purchase from any licensed insurer.",
			Category:     domain.CategoryHighlyRecommended,
		},
		{
			DocumentType: "accommodation_proof",
			Name:         "Proof of Accommodation",
			Description:  "Hotel booking, rental agreement or invitation covering the stay.",
			Category:     domain.CategoryOptional,
		},
	}
}

// studentRules extends the base set for study visas.
func studentRules() []domain.RequiredDocumentRule {
	return []domain.RequiredDocumentRule{
		{
			DocumentType: "acceptance_letter",
			Name:         "Acceptance Letter",
			Description:  "Official admission letter from the educational institution.",
			HowToObtain:  "Issued by the admissions office after enrollment.",
			Category:     domain.CategoryRequired,
		},
		{
			DocumentType: "tuition_payment_proof",
			Name:         "Tuition Payment Confirmation",
			Description:  "Receipt or bank confirmation of tuition payment or scholarship award.",
			Category:     domain.CategoryHighlyRecommended,
		},
		{
			DocumentType: "academic_records",
			Name:         "Academic Records",
			Description:  "Diplomas and transcripts from previous studies, with certified translations if required.",
			Category:     domain.CategoryOptional,
		},
	}
}

// staticChecklistRules returns the curated rules for a (country, visa type)
// pair, or nil when the pair has no static table.
func staticChecklistRules(countryCode, visaType string) []domain.RequiredDocumentRule {
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	if _, ok := staticCountries[country]; !ok {
		return nil
	}
	return buildCountryRules(country, visaType)
}

// defaultChecklistRules returns the generic rules used when the requested
// country has no static table. They are modeled on the most demanding
// common case so the result errs toward over-asking.
func defaultChecklistRules(visaType string) []domain.RequiredDocumentRule {
	return buildCountryRules(defaultCountryCode, visaType)
}

// staticCountries is the set of destinations with curated overrides.
var staticCountries = map[string]struct{}{
	"US": {},
	"CA": {},
	"GB": {},
	"DE": {},
	"AU": {},
}

func buildCountryRules(country, visaType string) []domain.RequiredDocumentRule {
	rules := baseDocumentRules()
	if isStudentVisa(visaType) {
		rules = append(rules, studentRules()...)
		if doc := enrollmentProofRule(country); doc != nil {
			rules = append(rules, *doc)
		}
	}
	switch country {
	case "US":
		rules = applyOverride(rules, "application_form", func(r *domain.RequiredDocumentRule) {
			r.Name = "DS-160 Confirmation"
			r.Description = "DS-160 online nonimmigrant visa application confirmation page with barcode."
			r.HowToObtain = "Complete the DS-160 form on the CEAC website and print the confirmation."
		})
		rules = append(rules, domain.RequiredDocumentRule{
			DocumentType: "interview_appointment",
			Name:         "Interview Appointment Confirmation",
			Description:  "Confirmation of your scheduled consular interview.",
			Category:     domain.CategoryHighlyRecommended,
		})
	case "DE":
		rules = applyOverride(rules, "travel_insurance", func(r *domain.RequiredDocumentRule) {
			r.Name = "Schengen Travel Insurance"
			r.Description = "Insurance with at least EUR 30,000 medical coverage valid in the whole Schengen area."
			r.Category = domain.CategoryRequired
		})
	case "GB":
		rules = append(rules, domain.RequiredDocumentRule{
			DocumentType: "tb_test_certificate",
			Name:         "Tuberculosis Test Certificate",
			Description:  "TB test certificate from an approved clinic, required for stays over 6 months from listed countries.",
			Category:     domain.CategoryOptional,
		})
	}
	return rules
}

// enrollmentProofRule is the country-specific study enrollment document. The
// names matter: validation checks that a study checklist mentions the right
// national form.
func enrollmentProofRule(country string) *domain.RequiredDocumentRule {
	switch country {
	case "US":
		return &domain.RequiredDocumentRule{
			DocumentType: "i20_form",
			Name:         "Form I-20",
			Description:  "Certificate of Eligibility (I-20 for F-1, DS-2019 for J-1) issued by your school.",
			HowToObtain:  "Issued by the school's international student office after admission.",
			Category:     domain.CategoryRequired,
		}
	case "GB":
		return &domain.RequiredDocumentRule{
			DocumentType: "cas_statement",
			Name:         "CAS Statement",
			Description:  "Confirmation of Acceptance for Studies (CAS) number and statement from your sponsor institution.",
			Category:     domain.CategoryRequired,
		}
	case "CA":
		return &domain.RequiredDocumentRule{
			DocumentType: "letter_of_acceptance",
			Name:         "Letter of Acceptance",
			Description:  "Letter of Acceptance (LOA) from a designated learning institution; a CAQ is also required for Quebec.",
			Category:     domain.CategoryRequired,
		}
	case "AU":
		return &domain.RequiredDocumentRule{
			DocumentType: "coe_certificate",
			Name:         "Confirmation of Enrolment",
			Description:  "CoE issued by your institution through PRISMS.",
			Category:     domain.CategoryRequired,
		}
	default:
		return nil
	}
}

func applyOverride(rules []domain.RequiredDocumentRule, documentType string, fn func(*domain.RequiredDocumentRule)) []domain.RequiredDocumentRule {
	for i := range rules {
		if rules[i].DocumentType == documentType {
			fn(&rules[i])
		}
	}
	return rules
}

func isStudentVisa(visaType string) bool {
	switch strings.ToLower(strings.TrimSpace(visaType)) {
	case "student", "study", "f1", "f-1", "study_permit":
		return true
	default:
		return false
	}
}
