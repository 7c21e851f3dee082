package models

import (
	"strconv"
	"time"
)

// Domain selects which evaluation sequence runs for a situation.
type Domain string

const (
	DomainCriminalRelief  Domain = "criminal-relief"
	DomainEvictionDefense Domain = "eviction-defense"
	DomainUnknown         Domain = "unknown"
)

// Unknown is the sentinel for string fields the caller did not supply.
const Unknown = "unknown"

// Flag names recognised by the normalizer and referenced from policy tables.
const (
	FlagHasPendingCharges    = "hasPendingCharges"
	FlagAllFinesPaid         = "allFinesPaid"
	FlagProbationCompleted   = "probationCompleted"
	FlagDiversionCompleted   = "diversionCompleted"
	FlagNoticeReceived       = "noticeReceived"
	FlagPaymentMade          = "paymentMade"
	FlagPaymentRefused       = "paymentRefused"
	FlagLockChanged          = "lockChanged"
	FlagUtilitiesShutoff     = "utilitiesShutoff"
	FlagJudgmentReceived     = "judgmentReceived"
	FlagRepairsRequested     = "repairsRequested"
	FlagRetaliationSuspected = "retaliationSuspected"
)

// BoolFlags lists every boolean flag in declaration order.
var BoolFlags = []string{
	FlagHasPendingCharges,
	FlagAllFinesPaid,
	FlagProbationCompleted,
	FlagDiversionCompleted,
	FlagNoticeReceived,
	FlagPaymentMade,
	FlagPaymentRefused,
	FlagLockChanged,
	FlagUtilitiesShutoff,
	FlagJudgmentReceived,
	FlagRepairsRequested,
	FlagRetaliationSuspected,
}

// Date field names.
const (
	DateDisposition        = "dispositionDate"
	DateSentenceCompletion = "sentenceCompletionDate"
	DateNotice             = "noticeDate"
	DateFiling             = "filingDate"
	DateCourt              = "courtDate"
	DateJudgment           = "judgmentDate"
)

// DateFields lists every named date in declaration order.
var DateFields = []string{
	DateDisposition,
	DateSentenceCompletion,
	DateNotice,
	DateFiling,
	DateCourt,
	DateJudgment,
}

// SituationInput is a normalized evaluation request. Every recognised field is
// populated: missing booleans are false, counts zero, strings Unknown and
// dates absent.
type SituationInput struct {
	Domain            Domain
	Jurisdiction      string
	ReasonDescription string
	ChargeType        string
	OffenseLevel      string
	PropertyCondition string

	Flags map[string]bool

	PriorConvictions int
	MonthsBehind     int

	// Dates holds only valid calendar dates (UTC midnight); absent keys mean
	// the caller omitted the date or supplied one that did not parse.
	Dates map[string]time.Time

	// Warnings collects input problems that lower confidence instead of
	// failing the evaluation.
	Warnings []string
}

// Flag reports a boolean flag; unknown names are false.
func (s SituationInput) Flag(name string) bool {
	return s.Flags[name]
}

// Date returns the named date and whether it is present.
func (s SituationInput) Date(name string) (time.Time, bool) {
	d, ok := s.Dates[name]
	return d, ok
}

// FieldValue renders a flag or string field as text so policy rules can
// compare against it by name. Unrecognised names return "".
func (s SituationInput) FieldValue(name string) string {
	switch name {
	case "chargeType":
		return s.ChargeType
	case "offenseLevel":
		return s.OffenseLevel
	case "propertyCondition":
		return s.PropertyCondition
	case "priorConvictions":
		return strconv.Itoa(s.PriorConvictions)
	case "monthsBehind":
		return strconv.Itoa(s.MonthsBehind)
	}
	if v, ok := s.Flags[name]; ok {
		return strconv.FormatBool(v)
	}
	return ""
}
