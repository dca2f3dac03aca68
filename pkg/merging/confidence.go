package merging

import "github.com/Ramsey-B/fern/pkg/models"

// ConfidencePolicy bounds the presentation-only confidence hints
type ConfidencePolicy struct {
	HighThreshold   int
	ConflictCeiling int
}

// DefaultConfidencePolicy returns the production hint bounds
func DefaultConfidencePolicy() ConfidencePolicy {
	return ConfidencePolicy{
		HighThreshold:   80,
		ConflictCeiling: 49,
	}
}

// Annotate sets the confidence hint on each row. The hint scales from
// the source's candidate score when one is retrievable; same-batch
// sources rate high for apply rows. Conflict rows are always capped
// below the high-confidence threshold regardless of source.
func Annotate(rows []models.MergeDiffRow, sourceScore *int, sameBatch bool, policy ConfidencePolicy) {
	for i := range rows {
		rows[i].Confidence = confidence(&rows[i], sourceScore, sameBatch, policy)
	}
}

func confidence(row *models.MergeDiffRow, sourceScore *int, sameBatch bool, policy ConfidencePolicy) int {
	base := policy.ConflictCeiling
	switch {
	case sourceScore != nil:
		base = *sourceScore
	case sameBatch:
		base = policy.HighThreshold + 15
	}

	if base > 100 {
		base = 100
	}
	if base < 0 {
		base = 0
	}

	if row.Classification == models.ClassificationConflict && base > policy.ConflictCeiling {
		return policy.ConflictCeiling
	}
	return base
}
