// Package merging computes and applies field-level merge diffs
package merging

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Diff compares the target payload against a prospective source and
// classifies every field present in either payload. Classification is
// pure; the confidence hint is annotated separately and never drives
// decisions.
//
//   - equal: identical under case-insensitive, whitespace-trimmed
//     comparison, or nothing usable to bring over
//   - apply: target empty, source non-empty
//   - conflict: both non-empty and different
func Diff(target, source *models.Payload, sourceID string) []models.MergeDiffRow {
	rows := make([]models.MergeDiffRow, 0)

	for _, field := range models.PayloadFieldNames() {
		current := target.Field(field)
		suggested := source.Field(field)

		if strings.TrimSpace(current) == "" && strings.TrimSpace(suggested) == "" {
			continue
		}

		rows = append(rows, models.MergeDiffRow{
			Field:          field,
			CurrentValue:   current,
			SuggestedValue: suggested,
			Source:         sourceID,
			Classification: classify(current, suggested),
		})
	}

	return rows
}

func classify(current, suggested string) string {
	cur := strings.TrimSpace(current)
	sug := strings.TrimSpace(suggested)

	if sug == "" || strings.EqualFold(cur, sug) {
		return models.ClassificationEqual
	}
	if cur == "" {
		return models.ClassificationApply
	}
	return models.ClassificationConflict
}

// VisibleRows filters equal rows out of an operator-facing diff
func VisibleRows(rows []models.MergeDiffRow) []models.MergeDiffRow {
	visible := make([]models.MergeDiffRow, 0, len(rows))
	for _, row := range rows {
		if row.Classification != models.ClassificationEqual {
			visible = append(visible, row)
		}
	}
	return visible
}
