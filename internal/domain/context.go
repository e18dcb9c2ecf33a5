package domain

import (
	"fmt"
	"strings"
)

// RiskScore is the derived approval-risk snapshot carried on the applicant
// context. It is computed upstream; this core only reads it.
type RiskScore struct {
	Percent int       `json:"percent"`
	Level   RiskLevel `json:"level"`
}

// TravelHistory summarizes an applicant's prior travel.
type TravelHistory struct {
	PreviousVisits  int  `json:"previousVisits"`
	VisaRefusals    int  `json:"visaRefusals"`
	SchengenHistory bool `json:"schengenHistory"`
}

// Finances summarizes an applicant's declared financial position. Amounts
// are in the applicant's reporting currency, as captured by the
// questionnaire.
type Finances struct {
	BankBalance       float64 `json:"bankBalance"`
	MonthlyIncome     float64 `json:"monthlyIncome"`
	BankHistoryMonths int     `json:"bankHistoryMonths"`
}

// Documents carries document-possession flags declared by the applicant.
type Documents struct {
	HasPassport   bool `json:"hasPassport"`
	HasInvitation bool `json:"hasInvitation"`
	HasInsurance  bool `json:"hasInsurance"`
}

// ApplicantContext is a read-only snapshot of one applicant's profile, built
// once per evaluation. Condition expressions resolve their fields against it
// through Field.
type ApplicantContext struct {
	Citizenship      string        `json:"citizenship"`
	TargetCountry    string        `json:"targetCountry"`
	VisaType         string        `json:"visaType"`
	AppLanguage      string        `json:"appLanguage"`
	Age              int           `json:"age"`
	SponsorType      string        `json:"sponsorType"` // self, parent, spouse, employer, other
	EmploymentStatus string        `json:"employmentStatus"`
	IsStudent        bool          `json:"isStudent"`
	MaritalStatus    string        `json:"maritalStatus"`
	HasChildren      bool          `json:"hasChildren"`
	Finances         Finances      `json:"finances"`
	Travel           TravelHistory `json:"travel"`
	Documents        Documents     `json:"documents"`
	RiskScore        *RiskScore    `json:"riskScore,omitempty"`
}

// Field resolves a flat or dotted path (e.g. "sponsorType",
// "riskScore.level") to a string form of the value. The second return is
// false when the path does not resolve; condition evaluation treats that as
// unknown rather than false.
func (a *ApplicantContext) Field(path string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values()[strings.TrimSpace(path)]
	return v, ok
}

// values flattens the context into dotted keys. Booleans and numbers are
// rendered the way condition literals write them ("true", "2").
func (a *ApplicantContext) values() map[string]string {
	m := map[string]string{
		"citizenship":             a.Citizenship,
		"targetCountry":           a.TargetCountry,
		"visaType":                a.VisaType,
		"appLanguage":             a.AppLanguage,
		"age":                     fmt.Sprintf("%d", a.Age),
		"sponsorType":             a.SponsorType,
		"employmentStatus":        a.EmploymentStatus,
		"isStudent":               boolString(a.IsStudent),
		"maritalStatus":           a.MaritalStatus,
		"hasChildren":             boolString(a.HasChildren),
		"finances.bankBalance":    fmt.Sprintf("%g", a.Finances.BankBalance),
		"finances.monthlyIncome":  fmt.Sprintf("%g", a.Finances.MonthlyIncome),
		"travel.previousVisits":   fmt.Sprintf("%d", a.Travel.PreviousVisits),
		"travel.visaRefusals":     fmt.Sprintf("%d", a.Travel.VisaRefusals),
		"travel.schengenHistory":  boolString(a.Travel.SchengenHistory),
		"documents.hasPassport":   boolString(a.Documents.HasPassport),
		"documents.hasInvitation": boolString(a.Documents.HasInvitation),
		"documents.hasInsurance":  boolString(a.Documents.HasInsurance),
		"finances.historyMonths":  fmt.Sprintf("%d", a.Finances.BankHistoryMonths),
		"employment.status":       a.EmploymentStatus,
	}
	if a.RiskScore != nil {
		m["riskScore.level"] = string(a.RiskScore.Level)
		m["riskScore.percent"] = fmt.Sprintf("%d", a.RiskScore.Percent)
	}
	return m
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
