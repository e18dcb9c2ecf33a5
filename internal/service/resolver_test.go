package service

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeRuleSetStore struct {
	ruleSet *domain.RuleSet
	refs    []domain.DocumentReference
	err     error
}

func (f *fakeRuleSetStore) ActiveRuleSet(_ context.Context, _, _ string) (*domain.RuleSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.ruleSet == nil {
		return nil, domain.ErrNoRuleSet
	}
	return f.ruleSet, nil
}

func (f *fakeRuleSetStore) References(_ context.Context, _ string) ([]domain.DocumentReference, error) {
	return f.refs, nil
}

type fakeCatalog struct {
	docs map[string]*domain.CatalogDocument
}

func (f *fakeCatalog) CatalogDocument(_ context.Context, id string) (*domain.CatalogDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

type fakeFeatures struct{ catalog bool }

func (f *fakeFeatures) CatalogEnabled() bool { return f.catalog }

func defaultChecklistCfg() domain.ChecklistConfig {
	return domain.ChecklistConfig{MinItems: 4, MaxItems: 25, MaxAttempts: 2, MinViableItems: 4}
}

func embeddedRules(n int) []domain.RequiredDocumentRule {
	all := baseDocumentRules()
	rules := make([]domain.RequiredDocumentRule, 0, n)
	for i := 0; i < n && i < len(all); i++ {
		r := all[i]
		r.Condition = ""
		rules = append(rules, r)
	}
	return rules
}

func TestResolverService_EmbeddedSource(t *testing.T) {
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID:          "rs-1",
			CountryCode: "DE",
			VisaType:    "tourist",
			Approved:    true,
			Documents:   embeddedRules(5),
		},
	}
	resolver := NewResolverService(testLogger(), store, nil, &fakeFeatures{}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "DE",
		VisaType:      "tourist",
	})
	require.NoError(t, err)
	assert.Len(t, checklist.Items, 5)
	assert.False(t, checklist.AIGenerated)
	assert.Equal(t, "DE", checklist.Country)
}

func TestResolverService_SmallRuleSetFallsThrough(t *testing.T) {
	// Three embedded rules are below the viability threshold, so the
	// static table must answer instead.
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID:          "rs-1",
			CountryCode: "DE",
			VisaType:    "tourist",
			Approved:    true,
			Documents:   embeddedRules(3),
		},
	}
	resolver := NewResolverService(testLogger(), store, nil, &fakeFeatures{}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "DE",
		VisaType:      "tourist",
		SponsorType:   "self",
	})
	require.NoError(t, err)
	assert.Greater(t, len(checklist.Items), 3)

	// The static German table upgrades insurance to a Schengen requirement.
	var insurance *domain.ChecklistItem
	for i := range checklist.Items {
		if checklist.Items[i].DocumentType == "travel_insurance" {
			insurance = &checklist.Items[i]
		}
	}
	require.NotNil(t, insurance)
	assert.Equal(t, domain.CategoryRequired, insurance.Category)
}

func TestResolverService_UnknownCountryUsesDefault(t *testing.T) {
	resolver := NewResolverService(testLogger(), &fakeRuleSetStore{}, nil, &fakeFeatures{}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "ZZ",
		VisaType:      "tourist",
		SponsorType:   "self",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, checklist.Items)
	assert.Equal(t, "ZZ", checklist.Country)

	types := map[string]bool{}
	for _, item := range checklist.Items {
		types[item.DocumentType] = true
	}
	assert.True(t, types["passport"])
	assert.True(t, types["financial_proof"])
	assert.False(t, types["sponsor_letter"], "self-sponsored applicant must not be asked for a sponsor letter")
}

func TestResolverService_ConditionFailOpen(t *testing.T) {
	// sponsorType is unset, so the sponsor letter condition cannot be
	// answered. The document must be included rather than silently excused.
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID:          "rs-1",
			CountryCode: "FR",
			VisaType:    "tourist",
			Approved:    true,
			Documents: append(embeddedRules(4), domain.RequiredDocumentRule{
				DocumentType: "sponsor_letter",
				Name:         "Sponsorship Letter",
				Category:     domain.CategoryRequired,
				Condition:    "sponsorType !== 'self'",
			}),
		},
	}
	resolver := NewResolverService(testLogger(), store, nil, &fakeFeatures{}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "FR",
		VisaType:      "tourist",
	})
	require.NoError(t, err)

	found := false
	for _, item := range checklist.Items {
		if item.DocumentType == "sponsor_letter" {
			found = true
		}
	}
	assert.True(t, found, "unresolved condition must include the document")
}

func TestResolverService_CatalogSource(t *testing.T) {
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{ID: "rs-1", CountryCode: "US", VisaType: "student", Approved: true},
		refs: []domain.DocumentReference{
			{ID: "ref-1", RuleSetID: "rs-1", CatalogID: "cat-passport", SortOrder: 1},
			{ID: "ref-2", RuleSetID: "rs-1", CatalogID: "cat-i20", SortOrder: 2},
			{ID: "ref-3", RuleSetID: "rs-1", CatalogID: "cat-photo", SortOrder: 3},
			{
				ID: "ref-4", RuleSetID: "rs-1", CatalogID: "cat-funds", SortOrder: 4,
				CategoryOverride:    domain.CategoryHighlyRecommended,
				DescriptionOverride: "Scholarship award letters also count.",
			},
			{ID: "ref-5", RuleSetID: "rs-1", CatalogID: "cat-missing", SortOrder: 5},
		},
	}
	catalog := &fakeCatalog{docs: map[string]*domain.CatalogDocument{
		"cat-passport": {ID: "cat-passport", DocumentType: "passport", Name: "Valid Passport", Category: domain.CategoryRequired},
		"cat-i20":      {ID: "cat-i20", DocumentType: "i20_form", Name: "Form I-20", Category: domain.CategoryRequired},
		"cat-photo":    {ID: "cat-photo", DocumentType: "photo", Name: "Passport Photo", Category: domain.CategoryRequired},
		"cat-funds":    {ID: "cat-funds", DocumentType: "financial_proof", Name: "Proof of Funds", Category: domain.CategoryRequired, Description: "Bank statements."},
	}}
	resolver := NewResolverService(testLogger(), store, catalog, &fakeFeatures{catalog: true}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "US",
		VisaType:      "student",
		IsStudent:     true,
	})
	require.NoError(t, err)
	require.Len(t, checklist.Items, 4, "dangling reference must be skipped, not fatal")

	var funds *domain.ChecklistItem
	for i := range checklist.Items {
		if checklist.Items[i].DocumentType == "financial_proof" {
			funds = &checklist.Items[i]
		}
	}
	require.NotNil(t, funds)
	assert.Equal(t, domain.CategoryHighlyRecommended, funds.Category)
	assert.False(t, funds.Required)
	assert.Equal(t, domain.PriorityMedium, funds.Priority)
	assert.Equal(t, "Scholarship award letters also count.", funds.Description)
}

func TestResolverService_CatalogDisabledSkipsCatalog(t *testing.T) {
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID: "rs-1", CountryCode: "US", VisaType: "tourist", Approved: true,
			Documents: embeddedRules(5),
		},
		refs: []domain.DocumentReference{{ID: "ref-1", CatalogID: "cat-x"}},
	}
	// Catalog lookups would fail; with the feature off they must never run.
	resolver := NewResolverService(testLogger(), store, &fakeCatalog{}, &fakeFeatures{catalog: false}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "US",
		VisaType:      "tourist",
	})
	require.NoError(t, err)
	assert.Len(t, checklist.Items, 5)
}

func TestResolverService_NoDataSource(t *testing.T) {
	cfg := defaultChecklistCfg()
	cfg.MinViableItems = 100
	resolver := NewResolverService(testLogger(), &fakeRuleSetStore{}, nil, &fakeFeatures{}, cfg)

	_, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "US",
		VisaType:      "tourist",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDataSource)
}

func TestResolverService_Deterministic(t *testing.T) {
	resolver := NewResolverService(testLogger(), &fakeRuleSetStore{}, nil, &fakeFeatures{}, defaultChecklistCfg())
	applicant := &domain.ApplicantContext{TargetCountry: "US", VisaType: "student", IsStudent: true, SponsorType: "parent"}

	first, err := resolver.Resolve(context.Background(), applicant)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), applicant)
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
}

func TestResolverService_EmbeddedConditionAndCategoryStamping(t *testing.T) {
	// With the viability threshold tuned down, a small rule set resolves
	// on its own: the gated rule is excluded for a self-sponsored
	// applicant and the surviving items keep their rule categories.
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID:          "rs-1",
			CountryCode: "DE",
			VisaType:    "tourist",
			Approved:    true,
			Documents: []domain.RequiredDocumentRule{
				{DocumentType: "passport", Name: "Valid Passport", Category: domain.CategoryRequired},
				{DocumentType: "itinerary", Name: "Travel Itinerary", Category: domain.CategoryHighlyRecommended},
				{DocumentType: "sponsor_letter", Name: "Sponsorship Letter", Category: domain.CategoryRequired, Condition: "sponsorType !== 'self'"},
			},
		},
	}
	cfg := defaultChecklistCfg()
	cfg.MinViableItems = 2
	resolver := NewResolverService(testLogger(), store, nil, &fakeFeatures{}, cfg)

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "DE",
		VisaType:      "tourist",
		SponsorType:   "self",
	})
	require.NoError(t, err)
	require.Len(t, checklist.Items, 2)
	assert.Equal(t, "passport", checklist.Items[0].DocumentType)
	assert.Equal(t, domain.CategoryRequired, checklist.Items[0].Category)
	assert.True(t, checklist.Items[0].Required)
	assert.Equal(t, "itinerary", checklist.Items[1].DocumentType)
	assert.Equal(t, domain.CategoryHighlyRecommended, checklist.Items[1].Category)
	assert.False(t, checklist.Items[1].Required)
}

func TestResolverService_TerminologyNormalization(t *testing.T) {
	// An acceptance item worded for the wrong destination is rewritten
	// with the target country's national form; the documentType join key
	// stays untouched.
	store := &fakeRuleSetStore{
		ruleSet: &domain.RuleSet{
			ID:          "rs-1",
			CountryCode: "CA",
			VisaType:    "student",
			Approved:    true,
			Documents: append(embeddedRules(4), domain.RequiredDocumentRule{
				DocumentType: "acceptance_letter",
				Name:         "Form I-20",
				Description:  "Certificate of Eligibility for F-1 students.",
				Category:     domain.CategoryRequired,
			}),
		},
	}
	resolver := NewResolverService(testLogger(), store, nil, &fakeFeatures{}, defaultChecklistCfg())

	checklist, err := resolver.Resolve(context.Background(), &domain.ApplicantContext{
		TargetCountry: "CA",
		VisaType:      "student",
		IsStudent:     true,
	})
	require.NoError(t, err)

	var acceptance *domain.ChecklistItem
	for i := range checklist.Items {
		if checklist.Items[i].DocumentType == "acceptance_letter" {
			acceptance = &checklist.Items[i]
		}
	}
	require.NotNil(t, acceptance)
	assert.Equal(t, "Letter of Acceptance", acceptance.Name)
	assert.NotContains(t, acceptance.Description, "I-20")
}
