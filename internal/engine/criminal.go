package engine

import (
	"fmt"
	"strings"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

// Outcome is the terminal result of an evaluator run before assembly.
type Outcome struct {
	Status           models.Status
	Confidence       models.Confidence
	Reasons          []string
	BlockingFactors  []models.BlockingFactor
	WaitingPeriod    string
	WaitingPeriodMet bool
	Procedure        string
	Defenses         []models.Defense
}

var obligationLabels = map[string]string{
	models.FlagAllFinesPaid:       "fines, costs and restitution are not confirmed paid",
	models.FlagProbationCompleted: "probation or parole is not confirmed complete",
}

// EvaluateCriminal runs the record-relief sequence once to a terminal status.
// The rule chain is fail-fast:
//  1. pending charges block relief outright
//  2. non-conviction and diversion dispositions resolve without a waiting period
//  3. convictions check blocking offenses, conviction history, waiting
//     period and court obligations in that order
func EvaluateCriminal(in models.SituationInput, c models.Classification, timing models.TimingResult, pol *policy.JurisdictionPolicy) (Outcome, error) {
	table := pol.CriminalRelief
	if table == nil {
		return Outcome{}, &policy.UnsupportedJurisdictionError{Code: pol.Code, Domain: models.DomainCriminalRelief}
	}
	cat, ok := table.Categories[c.Category]
	if !ok {
		return Outcome{}, &policy.IntegrityError{
			Jurisdiction: pol.Code,
			Domain:       models.DomainCriminalRelief,
			Category:     c.Category,
			Table:        "categories",
		}
	}

	out := Outcome{Procedure: firstNonEmpty(cat.Procedure, table.DefaultProcedure)}

	if in.Flag(models.FlagHasPendingCharges) {
		out.Status = models.StatusIneligible
		out.Confidence = models.ConfidenceHigh
		out.BlockingFactors = append(out.BlockingFactors, models.BlockingFactor{
			Factor:      "Pending charges",
			Description: "Relief is unavailable while any criminal charge remains open.",
		})
		out.Reasons = append(out.Reasons, "Open charges must be resolved before any record relief can be sought.")
		return out, nil
	}

	switch cat.Disposition {
	case policy.DispositionDismissal:
		out.Status = models.StatusEligible
		out.Confidence = models.ConfidenceHigh
		out.WaitingPeriod = models.WaitingPeriodNone
		out.WaitingPeriodMet = true
		out.Reasons = append(out.Reasons, "Charges that did not end in a conviction can be cleared without a waiting period.")
	case policy.DispositionDiversionCompleted:
		out.Status = models.StatusEligible
		out.Confidence = models.ConfidenceHigh
		out.WaitingPeriod = models.WaitingPeriodNone
		out.WaitingPeriodMet = true
		out.Reasons = append(out.Reasons, "Completed diversion qualifies for relief without a waiting period.")
	case policy.DispositionDiversionPending:
		out.Status = models.StatusPending
		out.Confidence = models.ConfidenceMedium
		out.Reasons = append(out.Reasons, "Relief becomes available once the diversion program is completed.")
	case policy.DispositionConviction:
		evaluateConviction(&out, in, c, timing, table, cat)
	default:
		out.Status = models.StatusUnknown
		out.Confidence = models.ConfidenceLow
		out.Reasons = append(out.Reasons, "The case outcome could not be identified from the description provided.")
	}
	return out, nil
}

func evaluateConviction(out *Outcome, in models.SituationInput, c models.Classification, timing models.TimingResult, table *policy.CriminalTable, cat policy.CriminalCategory) {
	if offense, ok := matchBlockingOffense(in, table.BlockingOffenses); ok {
		out.Confidence = models.ConfidenceHigh
		out.BlockingFactors = append(out.BlockingFactors, models.BlockingFactor{
			Factor:      offense.Name,
			Description: firstNonEmpty(offense.Description, offense.Name+" convictions are excluded from relief."),
			Citation:    offense.Citation,
		})
		if offense.Severity == policy.SeverityLimited {
			out.Status = models.StatusLimited
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s convictions qualify only for limited relief.", offense.Name))
		} else {
			out.Status = models.StatusIneligible
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s convictions are not eligible for relief.", offense.Name))
		}
		return
	}

	if table.MaxPriorConvictions > 0 && in.PriorConvictions > table.MaxPriorConvictions {
		out.Status = models.StatusLimited
		out.Confidence = models.ConfidenceMedium
		out.BlockingFactors = append(out.BlockingFactors, models.BlockingFactor{
			Factor:      "Conviction history",
			Description: fmt.Sprintf("%d prior convictions exceed the limit of %d.", in.PriorConvictions, table.MaxPriorConvictions),
		})
		out.Reasons = append(out.Reasons, "The number of prior convictions limits which records can be cleared.")
		return
	}

	required := cat.WaitingPeriodYears
	if required > 0 {
		if timing.YearsElapsed == nil {
			out.Status = models.StatusUnknown
			out.Confidence = models.ConfidenceLow
			out.Reasons = append(out.Reasons, fmt.Sprintf("A disposition or sentence completion date is needed to check the %s waiting period.", yearsText(required)))
			return
		}
		elapsed := *timing.YearsElapsed
		if elapsed < required {
			remaining := required - elapsed
			out.Status = models.StatusPending
			out.Confidence = models.ConfidenceMedium
			out.WaitingPeriod = remainingText(remaining)
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s of the required %s have passed; %s must pass before filing.",
				yearsText(elapsed), yearsText(required), remainingText(remaining)))
			return
		}
	}
	out.WaitingPeriod = models.WaitingPeriodNone
	out.WaitingPeriodMet = true
	if required > 0 {
		out.Reasons = append(out.Reasons, fmt.Sprintf("The %s waiting period has been met.", yearsText(required)))
	}

	var unmet []string
	for _, name := range table.RequiredObligations {
		if !in.Flag(name) {
			unmet = append(unmet, firstNonEmpty(obligationLabels[name], name+" is not satisfied"))
		}
	}
	if len(unmet) > 0 {
		out.Status = models.StatusIneligible
		out.Confidence = models.ConfidenceMedium
		out.BlockingFactors = append(out.BlockingFactors, models.BlockingFactor{
			Factor:      "Outstanding obligations",
			Description: capitalize(strings.Join(unmet, "; ")) + ".",
		})
		out.Reasons = append(out.Reasons, "All court-ordered obligations must be completed before relief is granted.")
		return
	}

	out.Status = models.StatusEligible
	out.Confidence = models.ConfidenceMedium
	out.Reasons = append(out.Reasons, "The conviction appears eligible for relief.")

	auto := table.AutomaticRelief
	if auto.Covers(c.Category) && timing.YearsElapsed != nil && *timing.YearsElapsed >= auto.WaitingPeriodYears {
		out.Procedure = firstNonEmpty(auto.Procedure, out.Procedure)
		reason := "The record should be sealed automatically without a petition."
		if auto.Citation != "" {
			reason = fmt.Sprintf("The record should be sealed automatically without a petition (%s).", auto.Citation)
		}
		out.Reasons = append(out.Reasons, reason)
	}
}

// matchBlockingOffense checks offenses in declared order; the first match wins.
func matchBlockingOffense(in models.SituationInput, offenses []policy.BlockingOffense) (policy.BlockingOffense, bool) {
	text := strings.ToLower(joinKnown(in.ChargeType, in.ReasonDescription))
	for _, offense := range offenses {
		if len(matchKeywords(text, offense.Keywords)) > 0 {
			return offense, true
		}
	}
	return policy.BlockingOffense{}, false
}

func yearsText(n int) string {
	if n == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", n)
}

func remainingText(n int) string {
	if n == 1 {
		return "1 more year"
	}
	return fmt.Sprintf("%d more years", n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
