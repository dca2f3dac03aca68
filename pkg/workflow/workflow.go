// Package workflow sequences documents through the resolution pipeline
package workflow

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Context is an immutable snapshot of the facts stage gating depends
// on. No hidden mutable state drives navigation.
type Context struct {
	DocumentExists   bool
	HasCandidates    bool
	MatchResolved    bool
	HasMergeSources  bool
	ValidationPassed bool
}

// InvalidTransitionError rejects an explicit request whose target
// stage preconditions are unmet
type InvalidTransitionError struct {
	Requested models.WorkflowStage
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot enter stage %q: %s", e.Requested, e.Reason)
}

var stageOrder = []models.WorkflowStage{
	models.StageUpload,
	models.StageMatch,
	models.StageMerge,
	models.StageReview,
	models.StagePrepare,
	models.StageAutofill,
}

// CanEnter reports whether the target stage's preconditions hold
func CanEnter(stage models.WorkflowStage, ctx Context) bool {
	if !ctx.DocumentExists {
		return stage == models.StageUpload
	}
	switch stage {
	case models.StageUpload, models.StageReview:
		return true
	case models.StageMatch:
		return ctx.HasCandidates
	case models.StageMerge:
		return ctx.MatchResolved && ctx.HasMergeSources
	case models.StagePrepare, models.StageAutofill:
		return ctx.ValidationPassed
	}
	return false
}

// InitialStage routes a freshly scored document out of upload: match
// when candidates exist, review otherwise.
func InitialStage(ctx Context) models.WorkflowStage {
	if ctx.HasCandidates {
		return models.StageMatch
	}
	return models.StageReview
}

// AfterMatchResolution routes a document after confirm or reject:
// merge when merge sources remain, review otherwise.
func AfterMatchResolution(ctx Context) models.WorkflowStage {
	if ctx.HasMergeSources {
		return models.StageMerge
	}
	return models.StageReview
}

// FallbackStep resolves a navigation request deterministically. An
// unreachable stage redirects to the nearest reachable prior stage,
// with review as the general fallback and upload when no document
// context exists. Never an error: redirection is how the navigation
// guard works.
func FallbackStep(requested models.WorkflowStage, ctx Context) models.WorkflowStage {
	if !ctx.DocumentExists {
		return models.StageUpload
	}
	if !requested.IsValid() {
		return models.StageReview
	}
	if CanEnter(requested, ctx) {
		return requested
	}

	idx := stageIndex(requested)
	for i := idx - 1; i > 0; i-- {
		if CanEnter(stageOrder[i], ctx) {
			return stageOrder[i]
		}
	}
	return models.StageReview
}

// Transition validates an explicit caller-requested transition. Unlike
// FallbackStep it rejects instead of redirecting: explicit actions
// that violate preconditions are caller errors.
func Transition(current, requested models.WorkflowStage, ctx Context) (models.WorkflowStage, error) {
	if !ctx.DocumentExists {
		return current, &InvalidTransitionError{Requested: requested, Reason: "document no longer exists"}
	}
	if !requested.IsValid() {
		return current, &InvalidTransitionError{Requested: requested, Reason: "unknown stage"}
	}
	if requested == current {
		return current, nil
	}
	if !CanEnter(requested, ctx) {
		return current, &InvalidTransitionError{Requested: requested, Reason: "stage preconditions unmet"}
	}
	return requested, nil
}

func stageIndex(stage models.WorkflowStage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return len(stageOrder) - 1
}
