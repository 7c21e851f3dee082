package engine

import (
	"strings"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

// Classify returns the category of the first rule in the domain table that
// matches the situation description. Rule order is authoritative; when no
// rule matches the table default is returned.
func Classify(in models.SituationInput, pol *policy.JurisdictionPolicy) models.Classification {
	table := pol.Classification(in.Domain)
	text := strings.ToLower(classificationText(in))

	for _, rule := range table.Rules {
		matched := matchKeywords(text, rule.Keywords)
		if len(matched) == 0 {
			continue
		}
		if !flagsMatch(in, rule.WhenFlags) {
			continue
		}
		return models.Classification{Category: rule.Category, MatchedKeywords: matched}
	}
	return models.Classification{Category: table.DefaultCategory, MatchedKeywords: []string{}, Default: true}
}

func classificationText(in models.SituationInput) string {
	if in.Domain == models.DomainCriminalRelief {
		return joinKnown(in.ReasonDescription, in.OffenseLevel)
	}
	return joinKnown(in.ReasonDescription)
}

// joinKnown concatenates fields, skipping the unknown sentinel so it can
// never satisfy a keyword.
func joinKnown(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || v == models.Unknown {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// matchKeywords returns the keywords found in text, in declaration order.
func matchKeywords(text string, keywords []string) []string {
	if text == "" {
		return nil
	}
	var matched []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func flagsMatch(in models.SituationInput, want map[string]string) bool {
	for name, value := range want {
		if !strings.EqualFold(in.FieldValue(name), value) {
			return false
		}
	}
	return true
}
