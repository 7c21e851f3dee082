package models

// TimingResult holds the independent temporal computations. A nil pointer
// means the dates the computation depends on were absent.
type TimingResult struct {
	YearsElapsed *int `json:"yearsElapsed,omitempty"`

	NoticeDays         *int  `json:"noticeDays,omitempty"`
	RequiredNoticeDays int   `json:"requiredNoticeDays,omitempty"`
	Compliant          *bool `json:"compliant,omitempty"`

	DaysUntilCourt *int    `json:"daysUntilCourt,omitempty"`
	Urgency        Urgency `json:"urgency"`

	AppealDaysRemaining *int   `json:"appealDaysRemaining,omitempty"`
	AppealWindow        string `json:"appealWindow,omitempty"`
}

// NoticeViolation reports whether notice was measured and found short.
func (t TimingResult) NoticeViolation() bool {
	return t.Compliant != nil && !*t.Compliant
}

// AppealWindowPassed reports whether a judgment's appeal window has closed.
func (t TimingResult) AppealWindowPassed() bool {
	return t.AppealWindow == AppealWindowPassed
}
