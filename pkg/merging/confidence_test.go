package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestAnnotate_SourceScore(t *testing.T) {
	policy := DefaultConfidencePolicy()
	rows := []models.MergeDiffRow{
		{Field: "identification.surname", Classification: models.ClassificationApply},
		{Field: "address.city", Classification: models.ClassificationConflict},
	}

	Annotate(rows, intPtr(92), false, policy)

	assert.Equal(t, 92, rows[0].Confidence)
	assert.Equal(t, policy.ConflictCeiling, rows[1].Confidence, "conflicts never present as high confidence")
}

func TestAnnotate_SameBatchWithoutScore(t *testing.T) {
	policy := DefaultConfidencePolicy()
	rows := []models.MergeDiffRow{
		{Field: "identification.surname", Classification: models.ClassificationApply},
		{Field: "address.city", Classification: models.ClassificationConflict},
	}

	Annotate(rows, nil, true, policy)

	assert.Equal(t, policy.HighThreshold+15, rows[0].Confidence)
	assert.Equal(t, policy.ConflictCeiling, rows[1].Confidence)
}

func TestAnnotate_NoSignal(t *testing.T) {
	policy := DefaultConfidencePolicy()
	rows := []models.MergeDiffRow{
		{Field: "identification.surname", Classification: models.ClassificationApply},
	}

	Annotate(rows, nil, false, policy)

	assert.Equal(t, policy.ConflictCeiling, rows[0].Confidence)
}

func TestAnnotate_ClampsOutOfRangeScores(t *testing.T) {
	policy := DefaultConfidencePolicy()
	rows := []models.MergeDiffRow{
		{Field: "a", Classification: models.ClassificationApply},
		{Field: "b", Classification: models.ClassificationApply},
	}

	Annotate(rows[:1], intPtr(250), false, policy)
	assert.Equal(t, 100, rows[0].Confidence)

	Annotate(rows[1:], intPtr(-10), false, policy)
	assert.Equal(t, 0, rows[1].Confidence)
}

func TestAnnotate_LowScoreConflictKeepsScore(t *testing.T) {
	policy := DefaultConfidencePolicy()
	rows := []models.MergeDiffRow{
		{Field: "address.city", Classification: models.ClassificationConflict},
	}

	Annotate(rows, intPtr(30), false, policy)
	assert.Equal(t, 30, rows[0].Confidence, "scores already under the ceiling pass through")
}
