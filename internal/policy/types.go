// Package policy loads and caches jurisdiction rule tables.
package policy

import "github.com/clearpathlegal/verdict-engine/internal/models"

// JurisdictionPolicy is the immutable rule table for one jurisdiction. A
// loaded policy is shared by concurrent evaluations and must not be mutated.
type JurisdictionPolicy struct {
	Code           string         `yaml:"code"`
	Name           string         `yaml:"name"`
	CriminalRelief *CriminalTable `yaml:"criminalRelief"`
	Eviction       *EvictionTable `yaml:"evictionDefense"`
}

// Supports reports whether the policy carries a table for the domain.
func (p *JurisdictionPolicy) Supports(domain models.Domain) bool {
	if p == nil {
		return false
	}
	switch domain {
	case models.DomainCriminalRelief:
		return p.CriminalRelief != nil
	case models.DomainEvictionDefense:
		return p.Eviction != nil
	default:
		return false
	}
}

// Classification returns the ordered rule list for the domain.
func (p *JurisdictionPolicy) Classification(domain models.Domain) ClassificationTable {
	switch {
	case domain == models.DomainCriminalRelief && p.CriminalRelief != nil:
		return p.CriminalRelief.ClassificationTable
	case domain == models.DomainEvictionDefense && p.Eviction != nil:
		return p.Eviction.ClassificationTable
	default:
		return ClassificationTable{}
	}
}

// ClassificationTable is an ordered (keywords → category) list. Order is a
// policy decision: the first matching rule wins, so specific rules must be
// declared before general ones.
type ClassificationTable struct {
	DefaultCategory string               `yaml:"defaultCategory"`
	Rules           []ClassificationRule `yaml:"rules"`
}

// ClassificationRule matches when any keyword is a case-insensitive substring
// of the description and every WhenFlags entry equals the input field value.
type ClassificationRule struct {
	Keywords  []string          `yaml:"keywords"`
	WhenFlags map[string]string `yaml:"whenFlags"`
	Category  string            `yaml:"category"`
}

// YearBasis selects how elapsed years are counted at the waiting-period
// boundary.
type YearBasis string

const (
	// YearBasisCalendar counts full anniversaries of the start date.
	YearBasisCalendar YearBasis = "calendar"
	// YearBasisAverage floors elapsed days divided by 365.25.
	YearBasisAverage YearBasis = "average"
)

// Disposition groups criminal categories into evaluation branches.
type Disposition string

const (
	DispositionDismissal          Disposition = "dismissal"
	DispositionDiversionCompleted Disposition = "diversion-completed"
	DispositionDiversionPending   Disposition = "diversion-pending"
	DispositionConviction         Disposition = "conviction"
	DispositionUnknown            Disposition = "unknown"
)

// CriminalTable holds record-relief rules.
type CriminalTable struct {
	ClassificationTable `yaml:",inline"`

	YearBasis           YearBasis                   `yaml:"yearBasis"`
	Categories          map[string]CriminalCategory `yaml:"categories"`
	BlockingOffenses    []BlockingOffense           `yaml:"blockingOffenses"`
	RequiredObligations []string                    `yaml:"requiredObligations"`
	MaxPriorConvictions int                         `yaml:"maxPriorConvictions"`
	AutomaticRelief     AutomaticRelief             `yaml:"automaticRelief"`
	DefaultProcedure    string                      `yaml:"defaultProcedure"`
	NextSteps           map[models.Status][]string  `yaml:"nextSteps"`
}

// CriminalCategory is the per-category threshold row.
type CriminalCategory struct {
	Disposition        Disposition `yaml:"disposition"`
	WaitingPeriodYears int         `yaml:"waitingPeriodYears"`
	Procedure          string      `yaml:"procedure"`
	Label              string      `yaml:"label"`
}

// Severity values for blocking offenses.
const (
	SeverityIneligible = "ineligible"
	SeverityLimited    = "limited"
)

// BlockingOffense blocks or limits relief when its keywords appear in the
// conviction description.
type BlockingOffense struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Severity    string   `yaml:"severity"`
	Description string   `yaml:"description"`
	Citation    string   `yaml:"citation"`
}

// AutomaticRelief describes petition-free sealing (Clean Slate style).
type AutomaticRelief struct {
	Enabled            bool     `yaml:"enabled"`
	Categories         []string `yaml:"categories"`
	WaitingPeriodYears int      `yaml:"waitingPeriodYears"`
	Procedure          string   `yaml:"procedure"`
	Citation           string   `yaml:"citation"`
}

// Covers reports whether automatic relief applies to the category.
func (a AutomaticRelief) Covers(category string) bool {
	if !a.Enabled {
		return false
	}
	for _, c := range a.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// EvictionTable holds eviction-defense rules.
type EvictionTable struct {
	ClassificationTable `yaml:",inline"`

	AppealWindowDays int                         `yaml:"appealWindowDays"`
	Categories       map[string]EvictionCategory `yaml:"categories"`
	FlagDefenses     []FlagDefense               `yaml:"flagDefenses"`
	NextSteps        map[models.Status][]string  `yaml:"nextSteps"`
}

// EvictionCategory is the per-category notice row.
type EvictionCategory struct {
	NoticeDays int    `yaml:"noticeDays"`
	Procedure  string `yaml:"procedure"`
	Citation   string `yaml:"citation"`
	Label      string `yaml:"label"`
}

// FlagDefense maps a situational field value to a candidate defense.
type FlagDefense struct {
	Flag    string       `yaml:"flag"`
	Equals  string       `yaml:"equals"`
	Defense DefenseEntry `yaml:"defense"`
}

// DefenseEntry is the policy form of models.Defense.
type DefenseEntry struct {
	Name        string          `yaml:"name"`
	Strength    models.Strength `yaml:"strength"`
	Description string          `yaml:"description"`
	Citation    string          `yaml:"citation"`
}

// Model converts the entry to the output type.
func (d DefenseEntry) Model() models.Defense {
	return models.Defense{
		Name:        d.Name,
		Strength:    d.Strength,
		Description: d.Description,
		Citation:    d.Citation,
	}
}
