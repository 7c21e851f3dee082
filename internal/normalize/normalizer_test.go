package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/models"
)

func TestNormalizeDefaults(t *testing.T) {
	in := Normalize(map[string]any{})

	if in.Domain != models.DomainUnknown {
		t.Fatalf("expected unknown domain, got %s", in.Domain)
	}
	if in.Jurisdiction != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN jurisdiction, got %s", in.Jurisdiction)
	}
	if in.ReasonDescription != models.Unknown || in.ChargeType != models.Unknown || in.PropertyCondition != models.Unknown {
		t.Fatalf("expected unknown sentinels, got %+v", in)
	}
	for _, name := range models.BoolFlags {
		v, ok := in.Flags[name]
		if !ok || v {
			t.Fatalf("expected flag %s defaulted to false", name)
		}
	}
	if in.PriorConvictions != 0 || len(in.Dates) != 0 || len(in.Warnings) != 0 {
		t.Fatalf("unexpected defaults: %+v", in)
	}
}

func TestNormalizeCoercesValues(t *testing.T) {
	in := Normalize(map[string]any{
		"type":              "Eviction",
		"state":             " pa",
		"reason":            "non-payment of rent",
		"paymentMade":       "yes",
		"locksChanged":      true,
		"utilitiesShutoff":  float64(1),
		"noticeReceived":    "no",
		"propertyCondition": "POOR",
		"monthsBehind":      "3",
		"noticeDate":        "2026-01-01",
		"filingDate":        "01/11/2026",
	})

	if in.Domain != models.DomainEvictionDefense {
		t.Fatalf("expected eviction domain, got %s", in.Domain)
	}
	if in.Jurisdiction != "PA" {
		t.Fatalf("expected PA, got %q", in.Jurisdiction)
	}
	if !in.Flag(models.FlagPaymentMade) || !in.Flag(models.FlagLockChanged) || !in.Flag(models.FlagUtilitiesShutoff) {
		t.Fatalf("expected coerced true flags: %+v", in.Flags)
	}
	if in.Flag(models.FlagNoticeReceived) {
		t.Fatalf("expected noticeReceived false")
	}
	if in.PropertyCondition != "poor" {
		t.Fatalf("expected lower-cased property condition, got %s", in.PropertyCondition)
	}
	if in.MonthsBehind != 3 {
		t.Fatalf("expected 3 months behind, got %d", in.MonthsBehind)
	}
	filing, ok := in.Date(models.DateFiling)
	if !ok || !filing.Equal(time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected filing date %v (present=%v)", filing, ok)
	}
	if in.FieldValue(models.FlagPaymentMade) != "true" || in.FieldValue("propertyCondition") != "poor" {
		t.Fatalf("unexpected field values")
	}
}

func TestNormalizeRejectsOversizedCounts(t *testing.T) {
	in := Normalize(map[string]any{
		"domain":           "criminal",
		"priorConvictions": 1e300,
		"monthsBehind":     "9e18",
	})

	if in.PriorConvictions != 0 || in.MonthsBehind != 0 {
		t.Fatalf("expected oversized counts to be dropped, got %d and %d", in.PriorConvictions, in.MonthsBehind)
	}
	if len(in.Warnings) != 2 {
		t.Fatalf("expected a warning per oversized count, got %v", in.Warnings)
	}
	if !strings.HasPrefix(in.Warnings[0], "priorConvictions: unrecognized count") {
		t.Fatalf("unexpected warning %q", in.Warnings[0])
	}

	in = Normalize(map[string]any{"priorConvictions": float64(3)})
	if in.PriorConvictions != 3 || len(in.Warnings) != 0 {
		t.Fatalf("expected ordinary count kept without warning, got %d %v", in.PriorConvictions, in.Warnings)
	}
}

func TestNormalizeWarnsOnUnrecognizedDomain(t *testing.T) {
	in := Normalize(map[string]any{"domain": "bankruptcy"})
	if in.Domain != models.DomainUnknown {
		t.Fatalf("expected unknown domain, got %s", in.Domain)
	}
	if len(in.Warnings) != 1 || !strings.Contains(in.Warnings[0], `"bankruptcy"`) {
		t.Fatalf("expected domain warning, got %v", in.Warnings)
	}
}

func TestNormalizeMalformedDatesBecomeAbsent(t *testing.T) {
	in := Normalize(map[string]any{
		"domain":           "criminal-relief",
		"dispositionDate":  "sometime in 2019",
		"courtDate":        "",
		"judgmentDate":     42,
		"priorConvictions": "several",
	})

	if _, ok := in.Date(models.DateDisposition); ok {
		t.Fatalf("malformed disposition date must be absent")
	}
	if _, ok := in.Date(models.DateCourt); ok {
		t.Fatalf("empty court date must be absent")
	}
	if _, ok := in.Date(models.DateJudgment); ok {
		t.Fatalf("numeric judgment date must be absent")
	}
	if len(in.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", in.Warnings)
	}
	if !strings.Contains(in.Warnings[0], "priorConvictions") || !strings.Contains(in.Warnings[1], models.DateDisposition) {
		t.Fatalf("unexpected warning order: %v", in.Warnings)
	}
}
