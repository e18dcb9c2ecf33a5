package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

const validResponse = `{
  "type": "checklist",
  "visaType": "tourist",
  "country": "DE",
  "checklist": [
    {"documentType": "passport", "name": "Valid Passport", "description": "Passport valid 6 months beyond stay", "category": "required", "required": true, "priority": "high"},
    {"documentType": "application_form", "name": "Visa Application Form", "description": "Completed and signed form", "category": "required", "required": true, "priority": "high"},
    {"documentType": "photo", "name": "Passport Photo", "description": "Biometric photo", "category": "required", "required": true, "priority": "high"},
    {"documentType": "financial_proof", "name": "Proof of Funds", "description": "Bank statement for 3 months", "category": "required", "required": true, "priority": "high"},
    {"documentType": "travel_insurance", "name": "Travel Insurance", "description": "Coverage for the trip", "category": "highly_recommended", "required": false, "priority": "medium"}
  ],
  "notes": ["Verify requirements with the embassy."]
}`

func TestParseChecklistResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		items   int
	}{
		{"bare json", validResponse, false, 5},
		{"json fence", "```json\n" + validResponse + "\n```", false, 5},
		{"anonymous fence", "```\n" + validResponse + "\n```", false, 5},
		{"surrounding prose", "Here is your checklist:\n" + validResponse + "\nLet me know if you need more.", false, 5},
		{"no json at all", "I cannot generate a checklist right now.", true, 0},
		{"truncated json", validResponse[:120], true, 0},
		{"json without checklist", `{"type": "chat", "message": "hello"}`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, notes, err := parseChecklistResponse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.items)
			assert.Equal(t, []string{"Verify requirements with the embassy."}, notes)
			assert.Equal(t, "passport", items[0].DocumentType)
		})
	}
}

func TestParseChecklistResponseNotes(t *testing.T) {
	raw := `{
	  "checklist": [
	    {"documentType": "passport", "name": "Valid Passport", "category": "required"}
	  ],
	  "notes": ["Apply early.", "  ", "Bring originals to the appointment."]
	}`

	_, notes, err := parseChecklistResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apply early.", "Bring originals to the appointment."}, notes)
}

func TestValidateItems(t *testing.T) {
	cfg := defaultChecklistCfg()
	valid := func() []domain.ChecklistItem {
		return []domain.ChecklistItem{
			domain.NewChecklistItem("passport", "Valid Passport", "Valid 6 months beyond stay", domain.CategoryRequired),
			domain.NewChecklistItem("application_form", "Application Form", "Completed and signed", domain.CategoryRequired),
			domain.NewChecklistItem("photo", "Passport Photo", "Biometric photo", domain.CategoryRequired),
			domain.NewChecklistItem("travel_insurance", "Travel Insurance", "Medical coverage", domain.CategoryHighlyRecommended),
		}
	}

	t.Run("minimum valid checklist passes", func(t *testing.T) {
		issues := validateItems(valid(), "DE", "tourist", cfg)
		assert.Empty(t, issues)
	})

	t.Run("too few items is hard", func(t *testing.T) {
		issues := validateItems(valid()[:2], "DE", "tourist", cfg)
		assert.True(t, hasHardIssue(issues))
	})

	t.Run("missing documentType is hard", func(t *testing.T) {
		items := valid()
		items[1].DocumentType = ""
		assert.True(t, hasHardIssue(validateItems(items, "DE", "tourist", cfg)))
	})

	t.Run("no required documents is hard", func(t *testing.T) {
		items := valid()
		for i := range items {
			items[i].Category = domain.CategoryOptional
			items[i].Required = false
		}
		assert.True(t, hasHardIssue(validateItems(items, "DE", "tourist", cfg)))
	})

	t.Run("required flag mismatch is soft", func(t *testing.T) {
		items := valid()
		items[0].Required = false
		issues := validateItems(items, "DE", "tourist", cfg)
		require.Len(t, issues, 1)
		assert.False(t, issues[0].Hard)
	})

	t.Run("unknown category is hard", func(t *testing.T) {
		items := valid()
		items[3].Category = "recommended"
		assert.True(t, hasHardIssue(validateItems(items, "DE", "tourist", cfg)))
	})

	t.Run("missing category is soft", func(t *testing.T) {
		items := valid()
		items[0].Category = ""
		issues := validateItems(items, "DE", "tourist", cfg)
		assert.NotEmpty(t, issues)
		assert.False(t, hasHardIssue(issues))
	})

	t.Run("no highly recommended documents is hard", func(t *testing.T) {
		items := valid()
		items[3].Category = domain.CategoryOptional
		items[3].Required = false
		assert.True(t, hasHardIssue(validateItems(items, "DE", "tourist", cfg)))
	})

	t.Run("duplicate documentType is soft", func(t *testing.T) {
		items := append(valid(), valid()[0])
		issues := validateItems(items, "DE", "tourist", cfg)
		assert.NotEmpty(t, issues)
		assert.False(t, hasHardIssue(issues))
	})

	t.Run("US student checklist without I-20 flags terminology", func(t *testing.T) {
		issues := validateItems(valid(), "US", "student", cfg)
		found := false
		for _, issue := range issues {
			if !issue.Hard {
				found = true
			}
		}
		assert.True(t, found, "expected a soft terminology issue")
	})

	t.Run("US student checklist mentioning I-20 passes terminology", func(t *testing.T) {
		items := append(valid(), domain.NewChecklistItem("i20_form", "Form I-20", "Certificate of Eligibility, DS-160 filed separately", domain.CategoryRequired))
		issues := validateItems(items, "US", "student", cfg)
		assert.Empty(t, issues)
	})
}

func TestNormalizeItems(t *testing.T) {
	items := []domain.ChecklistItem{
		{DocumentType: "passport", Name: "Passport", Category: domain.CategoryRequired, Required: false},
		{DocumentType: "photo", Name: "Photo"},
		{DocumentType: "passport", Name: "Duplicate Passport", Category: domain.CategoryRequired},
		{DocumentType: "insurance", Name: "Insurance", Category: domain.CategoryHighlyRecommended, Required: true},
	}

	normalized := normalizeItems(items)
	require.Len(t, normalized, 3, "duplicates must be dropped keeping the first")

	assert.Equal(t, "Passport", normalized[0].Name)
	assert.True(t, normalized[0].Required)
	assert.Equal(t, domain.PriorityHigh, normalized[0].Priority)
	assert.Equal(t, domain.StatusMissing, normalized[0].Status)

	assert.Equal(t, domain.CategoryHighlyRecommended, normalized[1].Category, "missing category defaults to highly_recommended")
	assert.False(t, normalized[1].Required)
	assert.Equal(t, domain.PriorityMedium, normalized[1].Priority)

	assert.False(t, normalized[2].Required, "required flag must be re-derived from category")
	assert.Equal(t, domain.PriorityMedium, normalized[2].Priority)

	for _, item := range normalized {
		assert.NoError(t, item.Validate())
	}

	// Idempotency: a second pass is a no-op.
	assert.Equal(t, normalized, normalizeItems(normalized))
}

func TestNormalizeItemsPriority(t *testing.T) {
	tests := []struct {
		name string
		item domain.ChecklistItem
		want domain.Priority
	}{
		{
			"required ignores a low from the model",
			domain.ChecklistItem{DocumentType: "passport", Name: "Passport", Category: domain.CategoryRequired, Priority: domain.PriorityLow},
			domain.PriorityHigh,
		},
		{
			"optional ignores a high from the model",
			domain.ChecklistItem{DocumentType: "travel_guide", Name: "Travel Guide", Category: domain.CategoryOptional, Priority: domain.PriorityHigh},
			domain.PriorityLow,
		},
		{
			"highly recommended keeps an explicit high",
			domain.ChecklistItem{DocumentType: "insurance", Name: "Insurance", Category: domain.CategoryHighlyRecommended, Priority: domain.PriorityHigh},
			domain.PriorityHigh,
		},
		{
			"highly recommended otherwise settles on medium",
			domain.ChecklistItem{DocumentType: "itinerary", Name: "Itinerary", Category: domain.CategoryHighlyRecommended, Priority: domain.PriorityLow},
			domain.PriorityMedium,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized := normalizeItems([]domain.ChecklistItem{tt.item})
			require.Len(t, normalized, 1)
			assert.Equal(t, tt.want, normalized[0].Priority)
		})
	}
}
