package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

// selfHelpDefense applies in every jurisdiction: landlords must go through
// the courts to remove a tenant.
var selfHelpDefense = models.Defense{
	Name:        "Illegal self-help eviction",
	Strength:    models.StrengthStrong,
	Description: "Changing locks or shutting off utilities to force a tenant out is unlawful without a court order.",
}

// EvaluateEviction assembles candidate defenses for an eviction and derives a
// status from the strongest one.
func EvaluateEviction(in models.SituationInput, c models.Classification, timing models.TimingResult, pol *policy.JurisdictionPolicy) (Outcome, error) {
	table := pol.Eviction
	if table == nil {
		return Outcome{}, &policy.UnsupportedJurisdictionError{Code: pol.Code, Domain: models.DomainEvictionDefense}
	}
	cat, ok := table.Categories[c.Category]
	if !ok {
		return Outcome{}, &policy.IntegrityError{
			Jurisdiction: pol.Code,
			Domain:       models.DomainEvictionDefense,
			Category:     c.Category,
			Table:        "categories",
		}
	}

	out := Outcome{Procedure: cat.Procedure}
	label := firstNonEmpty(cat.Label, c.Category)
	out.Reasons = append(out.Reasons, fmt.Sprintf("Eviction classified as %s.", strings.ToLower(label)))

	defenses := make([]models.Defense, 0, len(table.FlagDefenses)+2)

	switch {
	case timing.NoticeViolation():
		defenses = append(defenses, models.Defense{
			Name:     "Improper notice",
			Strength: models.StrengthStrong,
			Description: fmt.Sprintf("The notice allowed %s before filing; %s requires %s.",
				daysText(*timing.NoticeDays), strings.ToLower(label), daysText(cat.NoticeDays)),
			Citation: cat.Citation,
		})
		out.Reasons = append(out.Reasons, fmt.Sprintf("Notice period of %s is shorter than the required %s.",
			daysText(*timing.NoticeDays), daysText(cat.NoticeDays)))
	case timing.Compliant != nil:
		out.Reasons = append(out.Reasons, fmt.Sprintf("Notice period of %s meets the required %s.",
			daysText(*timing.NoticeDays), daysText(cat.NoticeDays)))
	default:
		out.Reasons = append(out.Reasons, "Notice and filing dates are needed to check notice compliance.")
	}

	for _, fd := range table.FlagDefenses {
		if strings.EqualFold(in.FieldValue(fd.Flag), fd.Equals) {
			defenses = append(defenses, fd.Defense.Model())
		}
	}

	if in.Flag(models.FlagLockChanged) || in.Flag(models.FlagUtilitiesShutoff) {
		defenses = append(defenses, selfHelpDefense)
	}

	sortDefenses(defenses)
	out.Defenses = defenses

	if in.Flag(models.FlagJudgmentReceived) && timing.AppealWindow == "" {
		out.Reasons = append(out.Reasons, "A judgment date is needed to calculate the appeal deadline.")
	}
	if timing.AppealWindow == models.AppealWindowOpen {
		out.Reasons = append(out.Reasons, fmt.Sprintf("%s left to appeal the judgment.", capitalize(daysText(*timing.AppealDaysRemaining))))
	}

	switch {
	case timing.AppealWindowPassed():
		out.Status = models.StatusIneligible
		out.Confidence = models.ConfidenceHigh
		out.BlockingFactors = append(out.BlockingFactors, models.BlockingFactor{
			Factor:      "Appeal window passed",
			Description: fmt.Sprintf("The %d-day appeal window after judgment has closed.", table.AppealWindowDays),
		})
		out.Reasons = append(out.Reasons, "The deadline to appeal the judgment has passed.")
	case hasStrength(defenses, models.StrengthStrong):
		out.Status = models.StatusEligible
		out.Confidence = models.ConfidenceHigh
	case len(defenses) > 0:
		out.Status = models.StatusLimited
		out.Confidence = models.ConfidenceMedium
	default:
		out.Status = models.StatusUnknown
		out.Confidence = models.ConfidenceLow
		out.Reasons = append(out.Reasons, "No defenses were identified from the information provided.")
	}
	return out, nil
}

// sortDefenses orders by strength tier; the stable sort keeps declaration
// order within a tier.
func sortDefenses(defenses []models.Defense) {
	sort.SliceStable(defenses, func(i, j int) bool {
		return defenses[i].Strength.Rank() < defenses[j].Strength.Rank()
	})
}

func hasStrength(defenses []models.Defense, strength models.Strength) bool {
	for _, d := range defenses {
		if d.Strength == strength {
			return true
		}
	}
	return false
}

func daysText(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
