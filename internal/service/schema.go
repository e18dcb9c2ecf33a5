package service

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// Parsing and structural validation of model checklist responses. Hard
// issues reject the response and trigger a retry; soft issues are repaired
// in place by normalizeItems.

// parseChecklistResponse extracts the JSON object from a raw model response
// and maps it into checklist items. Models routinely wrap JSON in markdown
// fences or prose, so the parser cuts from the first '{' to the last '}'
// before interpreting it.
func parseChecklistResponse(raw string) ([]domain.ChecklistItem, []string, error) {
	payload := extractJSON(raw)
	if payload == "" || !gjson.Valid(payload) {
		return nil, nil, fmt.Errorf("response is not valid JSON")
	}

	doc := gjson.Parse(payload)
	list := doc.Get("checklist")
	if !list.Exists() {
		list = doc.Get("items")
	}
	if !list.IsArray() {
		return nil, nil, fmt.Errorf("response has no checklist array")
	}

	var items []domain.ChecklistItem
	list.ForEach(func(_, v gjson.Result) bool {
		items = append(items, domain.ChecklistItem{
			DocumentType: strings.TrimSpace(v.Get("documentType").String()),
			Name:         strings.TrimSpace(v.Get("name").String()),
			Description:  strings.TrimSpace(v.Get("description").String()),
			HowToObtain:  strings.TrimSpace(v.Get("howToObtain").String()),
			Category:     domain.DocumentCategory(strings.TrimSpace(v.Get("category").String())),
			Required:     v.Get("required").Bool(),
			Priority:     domain.Priority(strings.TrimSpace(v.Get("priority").String())),
		})
		return true
	})

	var notes []string
	doc.Get("notes").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			notes = append(notes, s)
		}
		return true
	})
	return items, notes, nil
}

// extractJSON strips markdown fences and surrounding prose, returning the
// widest brace-delimited slice of the response.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// validateItems checks a parsed checklist against the structural contract.
// Hard issues mean the response cannot be repaired and must be regenerated.
func validateItems(items []domain.ChecklistItem, country, visaType string, cfg domain.ChecklistConfig) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	if len(items) < cfg.MinItems {
		issues = append(issues, domain.ValidationIssue{
			Field:   "checklist",
			Message: fmt.Sprintf("only %d items, at least %d expected", len(items), cfg.MinItems),
			Hard:    true,
		})
	}
	if cfg.MaxItems > 0 && len(items) > cfg.MaxItems {
		issues = append(issues, domain.ValidationIssue{
			Field:   "checklist",
			Message: fmt.Sprintf("%d items exceeds the maximum of %d", len(items), cfg.MaxItems),
			Hard:    true,
		})
	}

	hasRequired := false
	hasRecommended := false
	seen := map[string]bool{}
	var text strings.Builder
	for i, item := range items {
		field := fmt.Sprintf("checklist[%d]", i)
		if item.DocumentType == "" {
			issues = append(issues, domain.ValidationIssue{Field: field, Message: "documentType is missing", Hard: true})
		}
		if item.Name == "" {
			issues = append(issues, domain.ValidationIssue{Field: field, Message: "name is missing", Hard: true})
		}
		if item.Category == "" {
			issues = append(issues, domain.ValidationIssue{Field: field, Message: "category is missing"})
		} else if !item.Category.IsValid() {
			issues = append(issues, domain.ValidationIssue{
				Field:   field,
				Message: fmt.Sprintf("unknown category %q", item.Category),
				Hard:    true,
			})
		}
		if item.Description == "" {
			issues = append(issues, domain.ValidationIssue{Field: field, Message: "description is missing"})
		}
		if item.Category.IsValid() && item.Required != item.Category.Required() {
			issues = append(issues, domain.ValidationIssue{
				Field:   field,
				Message: fmt.Sprintf("required flag disagrees with category %s", item.Category),
			})
		}
		if item.Priority != "" && !item.Priority.IsValid() {
			issues = append(issues, domain.ValidationIssue{
				Field:   field,
				Message: fmt.Sprintf("unknown priority %q", item.Priority),
			})
		}
		if item.DocumentType != "" && seen[item.DocumentType] {
			issues = append(issues, domain.ValidationIssue{
				Field:   field,
				Message: fmt.Sprintf("duplicate documentType %q", item.DocumentType),
			})
		}
		seen[item.DocumentType] = true
		if item.Category == domain.CategoryRequired {
			hasRequired = true
		}
		if item.Category == domain.CategoryHighlyRecommended {
			hasRecommended = true
		}
		text.WriteString(item.Name)
		text.WriteString(" ")
		text.WriteString(item.Description)
		text.WriteString(" ")
	}

	if len(items) > 0 && !hasRequired {
		issues = append(issues, domain.ValidationIssue{
			Field:   "checklist",
			Message: "no required documents in the checklist",
			Hard:    true,
		})
	}
	if len(items) > 0 && !hasRecommended {
		issues = append(issues, domain.ValidationIssue{
			Field:   "checklist",
			Message: "no highly recommended documents in the checklist",
			Hard:    true,
		})
	}

	for _, term := range missingMarkers(country, visaType, text.String()) {
		issues = append(issues, domain.ValidationIssue{
			Field:   "checklist",
			Message: fmt.Sprintf("expected %s terminology for %s is missing", term, country),
		})
	}

	return issues
}

func hasHardIssue(issues []domain.ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Hard {
			return true
		}
	}
	return false
}

func issueMessages(issues []domain.ValidationIssue) []string {
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return msgs
}

// normalizeItems repairs the soft defects validateItems tolerates: a missing
// category becomes highly_recommended, required and priority are re-derived
// from the category, statuses are initialized, and duplicate documentTypes
// are dropped keeping the first occurrence. The function is idempotent;
// running it on already-normalized input returns an equal slice.
func normalizeItems(items []domain.ChecklistItem) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.DocumentType] {
			continue
		}
		seen[item.DocumentType] = true
		if !item.Category.IsValid() {
			item.Category = domain.CategoryHighlyRecommended
		}
		item.Required = item.Category.Required()
		// Priority follows the category, not whatever arrived. Required is
		// always high and optional always low; a highly recommended item
		// keeps an explicit high and otherwise settles on medium.
		if item.Category != domain.CategoryHighlyRecommended || item.Priority != domain.PriorityHigh {
			item.Priority = item.Category.DefaultPriority()
		}
		if item.Status == "" {
			item.Status = domain.StatusMissing
		}
		out = append(out, item)
	}
	return out
}
