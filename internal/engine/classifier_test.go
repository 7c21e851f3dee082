package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

func builtinPolicy(t *testing.T, code string) *policy.JurisdictionPolicy {
	t.Helper()
	pol, err := policy.NewProvider(policy.Builtin(), nil).Get(context.Background(), code)
	require.NoError(t, err)
	return pol
}

func TestClassifyFirstMatchWins(t *testing.T) {
	pol := builtinPolicy(t, "TN")
	in := models.SituationInput{
		Domain:            models.DomainEvictionDefense,
		ReasonDescription: "Behind on rent and accused of drug activity",
	}

	c := Classify(in, pol)
	assert.Equal(t, "illegal-activity", c.Category)
	assert.Equal(t, []string{"drug"}, c.MatchedKeywords)
	assert.False(t, c.Default)
}

func TestClassifyWhenFlags(t *testing.T) {
	pol := builtinPolicy(t, "TN")
	in := models.SituationInput{
		Domain:            models.DomainCriminalRelief,
		ReasonDescription: "judicial diversion",
		Flags:             map[string]bool{},
	}

	assert.Equal(t, "diversion-pending", Classify(in, pol).Category)

	in.Flags[models.FlagDiversionCompleted] = true
	assert.Equal(t, "diversion-completed", Classify(in, pol).Category)
}

func TestClassifyUsesOffenseLevel(t *testing.T) {
	pol := builtinPolicy(t, "TN")
	in := models.SituationInput{
		Domain:            models.DomainCriminalRelief,
		ReasonDescription: models.Unknown,
		OffenseLevel:      "Class E felony",
	}

	assert.Equal(t, "felony-conviction", Classify(in, pol).Category)
}

func TestClassifyDefault(t *testing.T) {
	pol := builtinPolicy(t, "TN")
	in := models.SituationInput{
		Domain:            models.DomainEvictionDefense,
		ReasonDescription: models.Unknown,
	}

	c := Classify(in, pol)
	assert.True(t, c.Default)
	assert.Equal(t, "nonpayment", c.Category)
	assert.NotNil(t, c.MatchedKeywords)
	assert.Empty(t, c.MatchedKeywords)
}

func TestClassifyRuleOrderIsPolicy(t *testing.T) {
	rules := []policy.ClassificationRule{
		{Keywords: []string{"rent"}, Category: "nonpayment"},
		{Keywords: []string{"drug"}, Category: "illegal-activity"},
	}
	pol := &policy.JurisdictionPolicy{
		Code: "XX",
		Eviction: &policy.EvictionTable{
			ClassificationTable: policy.ClassificationTable{DefaultCategory: "nonpayment", Rules: rules},
		},
	}
	in := models.SituationInput{
		Domain:            models.DomainEvictionDefense,
		ReasonDescription: "rent and drug activity",
	}

	assert.Equal(t, "nonpayment", Classify(in, pol).Category)

	pol.Eviction.Rules = []policy.ClassificationRule{rules[1], rules[0]}
	assert.Equal(t, "illegal-activity", Classify(in, pol).Category)
}
