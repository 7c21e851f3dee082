package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clearpathlegal/verdict-engine/internal/models"
)

var (
	// ErrUnsupportedJurisdiction matches *UnsupportedJurisdictionError.
	ErrUnsupportedJurisdiction = errors.New("unsupported jurisdiction")
	// ErrPolicyIntegrity matches *IntegrityError.
	ErrPolicyIntegrity = errors.New("policy integrity error")
	// ErrPolicyNotFound is returned by sources that hold no document for a code.
	ErrPolicyNotFound = errors.New("policy not found")
)

// UnsupportedJurisdictionError rejects a code with no registered policy (or
// no table for the requested domain).
type UnsupportedJurisdictionError struct {
	Code      string
	Domain    models.Domain
	Supported []string
}

func (e *UnsupportedJurisdictionError) Error() string {
	msg := fmt.Sprintf("jurisdiction %q is not supported", e.Code)
	if e.Domain != "" {
		msg = fmt.Sprintf("jurisdiction %q is not supported for %s", e.Code, e.Domain)
	}
	if len(e.Supported) > 0 {
		msg += "; supported jurisdictions: " + strings.Join(e.Supported, ", ")
	}
	return msg
}

func (e *UnsupportedJurisdictionError) Is(target error) bool {
	return target == ErrUnsupportedJurisdiction
}

// IntegrityError signals that the classifier produced a category the policy
// tables do not define. It is a configuration defect, not a user error.
type IntegrityError struct {
	Jurisdiction string
	Domain       models.Domain
	Category     string
	Table        string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("policy %s/%s: category %q missing from %s table", e.Jurisdiction, e.Domain, e.Category, e.Table)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrPolicyIntegrity
}
