package models

// Status is the terminal outcome of an evaluation.
type Status string

const (
	StatusEligible   Status = "eligible"
	StatusIneligible Status = "ineligible"
	StatusPending    Status = "pending"
	StatusLimited    Status = "limited"
	StatusUnknown    Status = "unknown"
)

// Confidence captures how much the verdict depends on complete input.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Lower returns the next tier down; low stays low.
func (c Confidence) Lower() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Strength ranks an eviction defense.
type Strength string

const (
	StrengthStrong    Strength = "strong"
	StrengthModerate  Strength = "moderate"
	StrengthPotential Strength = "potential"
)

// Rank orders strengths ascending by priority; unknown strengths sort last.
func (s Strength) Rank() int {
	switch s {
	case StrengthStrong:
		return 0
	case StrengthModerate:
		return 1
	case StrengthPotential:
		return 2
	default:
		return 3
	}
}

// Urgency is a coarse signal derived from proximity to a court or appeal deadline.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyElevated Urgency = "elevated"
	UrgencyStandard Urgency = "standard"
)

// Severity returns a comparable weight; higher is more pressing.
func (u Urgency) Severity() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyUrgent:
		return 2
	case UrgencyElevated:
		return 1
	default:
		return 0
	}
}

// Appeal window states reported in the timeline analysis.
const (
	AppealWindowOpen   = "open"
	AppealWindowPassed = "passed"
)

// WaitingPeriodNone marks a verdict with no remaining waiting period.
const WaitingPeriodNone = "none"

// Classification is the category derived for one evaluation.
type Classification struct {
	Category        string
	MatchedKeywords []string
	// Default is true when no rule matched and the table default was used.
	Default bool
}

// BlockingFactor is a condition that makes relief unavailable.
type BlockingFactor struct {
	Factor      string `json:"factor"`
	Description string `json:"description"`
	Citation    string `json:"citation,omitempty"`
}

// Defense is a candidate eviction defense.
type Defense struct {
	Name        string   `json:"name"`
	Strength    Strength `json:"strength"`
	Description string   `json:"description"`
	Citation    string   `json:"citation,omitempty"`
}

// Verdict is the immutable result handed to document renderers. It covers
// both the eligibility verdict and the eviction defense assessment; fields
// not meaningful for a domain are left empty.
type Verdict struct {
	Domain              Domain           `json:"domain"`
	Jurisdiction        string           `json:"jurisdiction"`
	Category            string           `json:"category"`
	MatchedKeywords     []string         `json:"matchedKeywords"`
	Status              Status           `json:"status"`
	Confidence          Confidence       `json:"confidence"`
	Reasons             []string         `json:"reasons"`
	BlockingFactors     []BlockingFactor `json:"blockingFactors"`
	WaitingPeriod       string           `json:"waitingPeriod"`
	WaitingPeriodMet    bool             `json:"waitingPeriodMet"`
	ApplicableProcedure string           `json:"applicableProcedure"`
	Defenses            []Defense        `json:"defenses"`
	TimelineAnalysis    TimingResult     `json:"timelineAnalysis"`
	NextSteps           []string         `json:"nextSteps"`
	Warnings            []string         `json:"warnings"`
}
