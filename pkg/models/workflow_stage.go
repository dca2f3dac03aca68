package models

// WorkflowStage is the current checkpoint of a document in the
// upload -> resolution -> preparation pipeline
type WorkflowStage string

const (
	StageUpload   WorkflowStage = "upload"
	StageMatch    WorkflowStage = "match"
	StageMerge    WorkflowStage = "merge"
	StageReview   WorkflowStage = "review"
	StagePrepare  WorkflowStage = "prepare"
	StageAutofill WorkflowStage = "autofill"
)

// IsValid reports whether the stage is one of the known pipeline stages
func (s WorkflowStage) IsValid() bool {
	switch s {
	case StageUpload, StageMatch, StageMerge, StageReview, StagePrepare, StageAutofill:
		return true
	}
	return false
}
