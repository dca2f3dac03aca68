package models

// Diff row classifications
const (
	ClassificationApply    = "apply"
	ClassificationConflict = "conflict"
	ClassificationEqual    = "equal"
)

// MergeDiffRow is one field's comparison outcome between a target and a
// prospective source of truth. Confidence is a presentation hint only
// and never gates apply or transition decisions.
type MergeDiffRow struct {
	Field          string `json:"field"`
	CurrentValue   string `json:"current_value"`
	SuggestedValue string `json:"suggested_value"`
	Source         string `json:"source"`
	Classification string `json:"classification"`
	Confidence     int    `json:"confidence,omitempty"`
}
