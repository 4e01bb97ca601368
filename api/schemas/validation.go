package schemas

// -- Validation Schemas --

// Severity ranks a validation issue. Only error-severity issues make a model
// invalid; warnings and infos are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueCategory identifies which rule group raised an issue.
type IssueCategory string

const (
	CategoryCompleteness IssueCategory = "completeness"
	CategoryMapping      IssueCategory = "mapping"
	CategoryNaming       IssueCategory = "naming"
	CategoryReadModels   IssueCategory = "read_models"
	CategoryInteractions IssueCategory = "interactions"
	CategoryAutomations  IssueCategory = "automations"
	CategoryBalance      IssueCategory = "balance"
	CategoryOrphaned     IssueCategory = "orphaned"
	CategoryFlow         IssueCategory = "flow"
	CategoryChapters     IssueCategory = "chapters"
	CategorySwimlanes    IssueCategory = "swimlanes"
)

// ValidationIssue is one structural problem found in a model. Details carries
// structured context such as the offending entity name and suggested fixes.
type ValidationIssue struct {
	Severity Severity               `json:"severity"`
	Category IssueCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// ValidationResult is the outcome of one validator pass. Valid is true iff no
// issue has error severity.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

// Errors returns only the error-severity issues.
func (r ValidationResult) Errors() []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// CountBySeverity tallies issues per severity level.
func (r ValidationResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}
