// Package normalize turns loosely-typed situation records into SituationInput.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

var (
	domainKeys       = []string{"domain", "type"}
	jurisdictionKeys = []string{"jurisdiction", "state"}
	reasonKeys       = []string{"reasonDescription", "reason", "disposition", "evictionReason", "description"}
	chargeKeys       = []string{"chargeType", "offense"}
	levelKeys        = []string{"offenseLevel", "level"}
	conditionKeys    = []string{"propertyCondition"}

	// maxCount bounds numeric counts; larger values are treated as malformed.
	maxCount = float64(math.MaxInt32)

	flagAliases = map[string][]string{
		models.FlagLockChanged: {"locksChanged"},
	}

	domainAliases = map[string]models.Domain{
		"criminal-relief":  models.DomainCriminalRelief,
		"criminal":         models.DomainCriminalRelief,
		"expungement":      models.DomainCriminalRelief,
		"record-relief":    models.DomainCriminalRelief,
		"eviction-defense": models.DomainEvictionDefense,
		"eviction":         models.DomainEvictionDefense,
	}
)

// Normalize never fails: unrecognised values fall back to defaults and bad
// dates are dropped with a warning.
func Normalize(raw map[string]any) models.SituationInput {
	rawDomain := lookupString(raw, domainKeys...)
	in := models.SituationInput{
		Domain:            parseDomain(rawDomain),
		Jurisdiction:      strings.ToUpper(stringOr(lookupString(raw, jurisdictionKeys...), models.Unknown)),
		ReasonDescription: stringOr(lookupString(raw, reasonKeys...), models.Unknown),
		ChargeType:        stringOr(lookupString(raw, chargeKeys...), models.Unknown),
		OffenseLevel:      stringOr(lookupString(raw, levelKeys...), models.Unknown),
		PropertyCondition: strings.ToLower(stringOr(lookupString(raw, conditionKeys...), models.Unknown)),
		Flags:             make(map[string]bool, len(models.BoolFlags)),
		Dates:             make(map[string]time.Time),
	}
	if rawDomain != "" && in.Domain == models.DomainUnknown {
		in.Warnings = append(in.Warnings, fmt.Sprintf("domain: unrecognized value %q", rawDomain))
	}

	for _, name := range models.BoolFlags {
		keys := append([]string{name}, flagAliases[name]...)
		if v, ok := lookup(raw, keys...); ok {
			in.Flags[name] = coerceBool(v)
		} else {
			in.Flags[name] = false
		}
	}

	in.PriorConvictions = coerceCount(raw, "priorConvictions", &in.Warnings)
	in.MonthsBehind = coerceCount(raw, "monthsBehind", &in.Warnings)

	for _, name := range models.DateFields {
		v, ok := lookup(raw, name)
		if !ok {
			continue
		}
		s := coerceString(v)
		if s == "" {
			continue
		}
		d, err := utils.ParseCalendarDate(s)
		if err != nil {
			in.Warnings = append(in.Warnings, fmt.Sprintf("%s: unrecognized date %q", name, s))
			continue
		}
		in.Dates[name] = d
	}

	return in
}

func parseDomain(value string) models.Domain {
	if d, ok := domainAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return d
	}
	return models.DomainUnknown
}

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	return coerceString(v)
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}

func coerceCount(raw map[string]any, key string, warnings *[]string) int {
	v, ok := lookup(raw, key)
	if !ok {
		return 0
	}
	var n float64
	switch t := v.(type) {
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case float64:
		n = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("%s: unrecognized count %q", key, t))
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n > maxCount {
		*warnings = append(*warnings, fmt.Sprintf("%s: unrecognized count %v", key, v))
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
