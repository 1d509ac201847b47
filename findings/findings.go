// Package findings defines structural accessibility findings and the
// registry that maps element identities to them.
//
// A Finding is an immutable value describing one rule violation on one
// element. Findings are grouped by Tag (headings or landmarks) so callers
// can aggregate and clear one structure type without touching the other.
package findings

// Tag scopes findings to one structure type for aggregation and clearing.
type Tag string

const (
	TagHeadings  Tag = "headings"
	TagLandmarks Tag = "landmarks"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RuleID is a stable identifier for a validation rule. The registry never
// produces display text; presentation layers look labels up by rule id and
// fall back to the raw id for unknown rules.
type RuleID string

const (
	// Heading rules.
	RuleMissingH1    RuleID = "missingH1"
	RuleMultipleH1   RuleID = "multipleH1"
	RuleEmptyHeading RuleID = "emptyHeading"
	RuleSkippedLevel RuleID = "skippedLevel"

	// Landmark rules.
	RuleMissingMain    RuleID = "missingMain"
	RuleDuplicateMain  RuleID = "duplicateMain"
	RuleDuplicateLabel RuleID = "duplicateSameLabel"
	RuleUnlabeledRole  RuleID = "unlabeledSameRole"
)

// Rule describes one validation rule: its id, severity and tag.
type Rule struct {
	ID       RuleID   `json:"id"`
	Severity Severity `json:"severity"`
	Tag      Tag      `json:"tag"`
}

var ruleTable = []Rule{
	{RuleMissingH1, SeverityError, TagHeadings},
	{RuleMultipleH1, SeverityWarning, TagHeadings},
	{RuleEmptyHeading, SeverityError, TagHeadings},
	{RuleSkippedLevel, SeverityError, TagHeadings},
	{RuleMissingMain, SeverityError, TagLandmarks},
	{RuleDuplicateMain, SeverityError, TagLandmarks},
	{RuleDuplicateLabel, SeverityError, TagLandmarks},
	{RuleUnlabeledRole, SeverityWarning, TagLandmarks},
}

// Rules returns the full rule inventory.
func Rules() []Rule {
	out := make([]Rule, len(ruleTable))
	copy(out, ruleTable)
	return out
}

// Finding is one rule violation on one element. Equality is by Rule.
//
// Secondary marks an instance that tags an element already covered by a
// counted instance of the same issue: duplicate groups attach a finding to
// every member, but the aggregate counts only the primary instances (one
// per offending group, or total minus one for duplicate main/h1). Element-
// side accessors always return every instance, secondary or not.
type Finding struct {
	Rule      RuleID   `json:"rule"`
	Severity  Severity `json:"severity"`
	Tag       Tag      `json:"tag"`
	Secondary bool     `json:"secondary,omitempty"`
}

// New creates a Finding for a known rule. Unknown rules get zero-valued
// severity and tag; the registry stores them all the same.
func New(rule RuleID) Finding {
	for _, r := range ruleTable {
		if r.ID == rule {
			return Finding{Rule: r.ID, Severity: r.Severity, Tag: r.Tag}
		}
	}
	return Finding{Rule: rule}
}

// AsSecondary returns a copy marked as secondary.
func (f Finding) AsSecondary() Finding {
	f.Secondary = true
	return f
}

// IsError reports whether the finding is error-severity.
func (f Finding) IsError() bool { return f.Severity == SeverityError }

// Aggregated is a Finding plus the number of counted occurrences across
// all elements.
type Aggregated struct {
	Finding
	Count int `json:"count"`
}
