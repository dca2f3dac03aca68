package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestCanEnter(t *testing.T) {
	t.Run("no document allows only upload", func(t *testing.T) {
		ctx := Context{}
		assert.True(t, CanEnter(models.StageUpload, ctx))
		assert.False(t, CanEnter(models.StageMatch, ctx))
		assert.False(t, CanEnter(models.StageReview, ctx))
		assert.False(t, CanEnter(models.StageAutofill, ctx))
	})

	t.Run("upload and review are always reachable with a document", func(t *testing.T) {
		ctx := Context{DocumentExists: true}
		assert.True(t, CanEnter(models.StageUpload, ctx))
		assert.True(t, CanEnter(models.StageReview, ctx))
	})

	t.Run("match needs candidates", func(t *testing.T) {
		assert.False(t, CanEnter(models.StageMatch, Context{DocumentExists: true}))
		assert.True(t, CanEnter(models.StageMatch, Context{DocumentExists: true, HasCandidates: true}))
	})

	t.Run("merge needs a resolved match and sources", func(t *testing.T) {
		assert.False(t, CanEnter(models.StageMerge, Context{DocumentExists: true, MatchResolved: true}))
		assert.False(t, CanEnter(models.StageMerge, Context{DocumentExists: true, HasMergeSources: true}))
		assert.True(t, CanEnter(models.StageMerge, Context{DocumentExists: true, MatchResolved: true, HasMergeSources: true}))
	})

	t.Run("prepare and autofill need passing validation", func(t *testing.T) {
		assert.False(t, CanEnter(models.StagePrepare, Context{DocumentExists: true}))
		assert.True(t, CanEnter(models.StagePrepare, Context{DocumentExists: true, ValidationPassed: true}))
		assert.True(t, CanEnter(models.StageAutofill, Context{DocumentExists: true, ValidationPassed: true}))
	})
}

func TestInitialStage(t *testing.T) {
	t.Run("candidates route to match", func(t *testing.T) {
		assert.Equal(t, models.StageMatch, InitialStage(Context{DocumentExists: true, HasCandidates: true}))
	})

	t.Run("zero candidates route to review, never match", func(t *testing.T) {
		assert.Equal(t, models.StageReview, InitialStage(Context{DocumentExists: true}))
	})
}

func TestAfterMatchResolution(t *testing.T) {
	t.Run("remaining sources route to merge", func(t *testing.T) {
		assert.Equal(t, models.StageMerge, AfterMatchResolution(Context{DocumentExists: true, MatchResolved: true, HasMergeSources: true}))
	})

	t.Run("nothing left to merge routes to review", func(t *testing.T) {
		assert.Equal(t, models.StageReview, AfterMatchResolution(Context{DocumentExists: true, MatchResolved: true}))
	})
}

func TestFallbackStep(t *testing.T) {
	t.Run("no document always redirects to upload", func(t *testing.T) {
		assert.Equal(t, models.StageUpload, FallbackStep(models.StageAutofill, Context{}))
		assert.Equal(t, models.StageUpload, FallbackStep(models.StageUpload, Context{}))
	})

	t.Run("reachable stage is granted", func(t *testing.T) {
		ctx := Context{DocumentExists: true, ValidationPassed: true}
		assert.Equal(t, models.StageAutofill, FallbackStep(models.StageAutofill, ctx))
	})

	t.Run("unknown stage redirects to review", func(t *testing.T) {
		assert.Equal(t, models.StageReview, FallbackStep(models.WorkflowStage("teleport"), Context{DocumentExists: true}))
	})

	t.Run("walks back to the nearest reachable prior stage", func(t *testing.T) {
		ctx := Context{DocumentExists: true, HasCandidates: true}
		assert.Equal(t, models.StageMatch, FallbackStep(models.StageMerge, ctx))
	})

	t.Run("failed validation falls back to review", func(t *testing.T) {
		ctx := Context{DocumentExists: true}
		assert.Equal(t, models.StageReview, FallbackStep(models.StageAutofill, ctx))
		assert.Equal(t, models.StageReview, FallbackStep(models.StagePrepare, ctx))
	})
}

func TestTransition(t *testing.T) {
	t.Run("staying in place is a no-op", func(t *testing.T) {
		stage, err := Transition(models.StageReview, models.StageReview, Context{DocumentExists: true})
		require.NoError(t, err)
		assert.Equal(t, models.StageReview, stage)
	})

	t.Run("valid transition is granted", func(t *testing.T) {
		ctx := Context{DocumentExists: true, MatchResolved: true, HasMergeSources: true}
		stage, err := Transition(models.StageMatch, models.StageMerge, ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StageMerge, stage)
	})

	t.Run("unmet preconditions reject and hold the current stage", func(t *testing.T) {
		ctx := Context{DocumentExists: true}
		stage, err := Transition(models.StageReview, models.StageAutofill, ctx)

		var invalidErr *InvalidTransitionError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, models.StageAutofill, invalidErr.Requested)
		assert.Equal(t, models.StageReview, stage)
	})

	t.Run("unknown stage rejects", func(t *testing.T) {
		_, err := Transition(models.StageReview, models.WorkflowStage("teleport"), Context{DocumentExists: true})
		var invalidErr *InvalidTransitionError
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("missing document rejects", func(t *testing.T) {
		_, err := Transition(models.StageReview, models.StageUpload, Context{})
		var invalidErr *InvalidTransitionError
		require.ErrorAs(t, err, &invalidErr)
		assert.Contains(t, invalidErr.Error(), "no longer exists")
	})
}
