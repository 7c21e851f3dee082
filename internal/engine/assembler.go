package engine

import (
	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

const actImmediately = "Act immediately: a court or appeal deadline is days away or has passed."

// Assemble merges the stage outputs into a verdict. It never fails; every
// slice in the result is non-nil so renderers see empty lists rather than null.
func Assemble(in models.SituationInput, c models.Classification, timing models.TimingResult, out Outcome, pol *policy.JurisdictionPolicy) models.Verdict {
	confidence := out.Confidence
	if confidence == "" {
		confidence = models.ConfidenceLow
	}
	if len(in.Warnings) > 0 {
		confidence = confidence.Lower()
	}

	verdict := models.Verdict{
		Domain:              in.Domain,
		Jurisdiction:        pol.Code,
		Category:            c.Category,
		MatchedKeywords:     append([]string{}, c.MatchedKeywords...),
		Status:              out.Status,
		Confidence:          confidence,
		Reasons:             uniqueStrings(out.Reasons),
		BlockingFactors:     append([]models.BlockingFactor{}, out.BlockingFactors...),
		WaitingPeriod:       out.WaitingPeriod,
		WaitingPeriodMet:    out.WaitingPeriodMet,
		ApplicableProcedure: procedureKey(pol.Code, out.Procedure),
		Defenses:            append([]models.Defense{}, out.Defenses...),
		TimelineAnalysis:    timing,
		NextSteps:           nextSteps(in.Domain, out.Status, timing, pol),
		Warnings:            append([]string{}, in.Warnings...),
	}
	if c.Default {
		verdict.Reasons = append(verdict.Reasons, "The situation did not match a known category; the default category was applied.")
	}
	return verdict
}

// procedureKey namespaces a procedure by jurisdiction so renderers can look up
// the matching document template.
func procedureKey(code, procedure string) string {
	if procedure == "" {
		procedure = "general-consultation"
	}
	return code + "/" + procedure
}

func nextSteps(domain models.Domain, status models.Status, timing models.TimingResult, pol *policy.JurisdictionPolicy) []string {
	var steps []string
	if timing.Urgency == models.UrgencyCritical {
		steps = append(steps, actImmediately)
	}

	var table map[models.Status][]string
	switch {
	case domain == models.DomainCriminalRelief && pol.CriminalRelief != nil:
		table = pol.CriminalRelief.NextSteps
	case domain == models.DomainEvictionDefense && pol.Eviction != nil:
		table = pol.Eviction.NextSteps
	}
	if configured := table[status]; len(configured) > 0 {
		steps = append(steps, configured...)
	} else {
		steps = append(steps, defaultNextSteps(domain)...)
	}
	return uniqueStrings(steps)
}

func defaultNextSteps(domain models.Domain) []string {
	switch domain {
	case models.DomainEvictionDefense:
		return []string{
			"Keep copies of every notice, lease and rent receipt",
			"Contact a local legal aid office before the hearing date",
		}
	case models.DomainUnknown:
		return []string{
			"State whether the matter concerns a criminal record or an eviction",
			"Contact a local legal aid office for a general consultation",
		}
	}
	return []string{
		"Request a copy of your criminal history record",
		"Contact a local legal aid office to confirm eligibility",
	}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
