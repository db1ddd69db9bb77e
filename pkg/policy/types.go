package policy

import (
	"time"

	"github.com/flexelog/logbookcfg/pkg/config"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that make a logbook unusable.
	SeverityError Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Policy is a Rego module whose deny set reports problems with a logbook.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Source is the file the policy was loaded from, if any.
	Source string `json:"source,omitempty"`
}

// Violation is one deny result.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Logbook is the section the violation was found in.
	Logbook string `json:"logbook"`

	// Attribute names the attribute at fault, if any.
	Attribute string `json:"attribute,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Remediation provides a suggested fix.
	Remediation string `json:"remediation,omitempty"`
}

// Result is the outcome of evaluating the enabled policies against a
// configuration.
type Result struct {
	// Allowed is false when any violation has error severity.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists policies that could not be evaluated.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Logbooks is the number of logbooks evaluated.
	Logbooks int `json:"logbooks"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Input is the document a policy sees as `input`: one logbook resolved
// under the evaluation conditions.
type Input struct {
	// Logbook is the section name.
	Logbook string `json:"logbook"`

	// Conditions are the active condition tokens.
	Conditions []string `json:"conditions"`

	// Attributes is the resolved schema.
	Attributes []config.Attribute `json:"attributes"`

	// Settings maps lower-cased keys declared in the logbook or in global
	// to their resolved values.
	Settings map[string]string `json:"settings"`
}
