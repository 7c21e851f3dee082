package engine

import (
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

// EvaluateTiming computes the temporal facts the evaluators depend on. Each
// computation runs only when its dates are present; a missing date leaves the
// dependent field nil without affecting the others.
func EvaluateTiming(in models.SituationInput, c models.Classification, pol *policy.JurisdictionPolicy, now time.Time) models.TimingResult {
	today := utils.CalendarDay(now)
	result := models.TimingResult{Urgency: models.UrgencyStandard}

	if start, ok := completionDate(in); ok {
		basis := policy.YearBasisCalendar
		if pol.CriminalRelief != nil && pol.CriminalRelief.YearBasis != "" {
			basis = pol.CriminalRelief.YearBasis
		}
		years := yearsElapsed(start, today, basis)
		result.YearsElapsed = &years
	}

	notice, hasNotice := in.Date(models.DateNotice)
	filing, hasFiling := in.Date(models.DateFiling)
	if hasNotice && hasFiling {
		days := utils.DaysBetween(notice, filing)
		result.NoticeDays = &days
		if pol.Eviction != nil {
			if cat, ok := pol.Eviction.Categories[c.Category]; ok {
				result.RequiredNoticeDays = cat.NoticeDays
				compliant := days >= cat.NoticeDays
				result.Compliant = &compliant
			}
		}
	}

	if court, ok := in.Date(models.DateCourt); ok {
		days := utils.DaysBetween(today, court)
		result.DaysUntilCourt = &days
		result.Urgency = urgencyForDays(days)
	}

	if judgment, ok := in.Date(models.DateJudgment); ok && pol.Eviction != nil {
		since := utils.DaysBetween(judgment, today)
		remaining := pol.Eviction.AppealWindowDays - since
		if remaining < 0 {
			remaining = 0
		}
		result.AppealDaysRemaining = &remaining
		appealUrgency := urgencyForDays(remaining)
		if remaining == 0 {
			result.AppealWindow = models.AppealWindowPassed
			appealUrgency = models.UrgencyCritical
		} else {
			result.AppealWindow = models.AppealWindowOpen
		}
		if appealUrgency.Severity() > result.Urgency.Severity() {
			result.Urgency = appealUrgency
		}
	}

	return result
}

// completionDate prefers the sentence completion date over the disposition
// date since waiting periods usually run from the end of the sentence.
func completionDate(in models.SituationInput) (time.Time, bool) {
	if d, ok := in.Date(models.DateSentenceCompletion); ok {
		return d, true
	}
	return in.Date(models.DateDisposition)
}

func yearsElapsed(start, today time.Time, basis policy.YearBasis) int {
	if basis == policy.YearBasisAverage {
		return utils.AverageYearsBetween(start, today)
	}
	return utils.FullYearsBetween(start, today)
}

func urgencyForDays(days int) models.Urgency {
	switch {
	case days <= 3:
		return models.UrgencyCritical
	case days <= 7:
		return models.UrgencyUrgent
	case days <= 14:
		return models.UrgencyElevated
	default:
		return models.UrgencyStandard
	}
}
