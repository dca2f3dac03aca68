package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func payloadWith(fields map[string]string) models.Payload {
	p := models.Payload{}
	for name, value := range fields {
		p.SetField(name, value)
	}
	return p
}

func rowFor(t *testing.T, rows []models.MergeDiffRow, field string) models.MergeDiffRow {
	t.Helper()
	for _, row := range rows {
		if row.Field == field {
			return row
		}
	}
	t.Fatalf("no diff row for field %s", field)
	return models.MergeDiffRow{}
}

func TestDiff_Classification(t *testing.T) {
	target := payloadWith(map[string]string{
		"identification.first_name": "Jose",
		"identification.surname":    "garcia",
		"address.city":              "Madrid",
	})
	source := payloadWith(map[string]string{
		"identification.surname":    "GARCIA",
		"identification.birth_date": "12/05/1995",
		"address.city":              "Barcelona",
	})

	rows := Diff(&target, &source, "doc-source")

	t.Run("target only field is equal, nothing to bring over", func(t *testing.T) {
		row := rowFor(t, rows, "identification.first_name")
		assert.Equal(t, models.ClassificationEqual, row.Classification)
	})

	t.Run("case insensitive values are equal", func(t *testing.T) {
		row := rowFor(t, rows, "identification.surname")
		assert.Equal(t, models.ClassificationEqual, row.Classification)
	})

	t.Run("source fills an empty target field", func(t *testing.T) {
		row := rowFor(t, rows, "identification.birth_date")
		assert.Equal(t, models.ClassificationApply, row.Classification)
		assert.Equal(t, "", row.CurrentValue)
		assert.Equal(t, "12/05/1995", row.SuggestedValue)
		assert.Equal(t, "doc-source", row.Source)
	})

	t.Run("different non empty values conflict", func(t *testing.T) {
		row := rowFor(t, rows, "address.city")
		assert.Equal(t, models.ClassificationConflict, row.Classification)
		assert.Equal(t, "Madrid", row.CurrentValue)
		assert.Equal(t, "Barcelona", row.SuggestedValue)
	})

	t.Run("fields empty on both sides are omitted", func(t *testing.T) {
		for _, row := range rows {
			assert.NotEqual(t, "extra.iban", row.Field)
		}
		assert.Len(t, rows, 4)
	})
}

func TestDiff_WhitespaceTrimmedComparison(t *testing.T) {
	target := payloadWith(map[string]string{"address.city": " Madrid "})
	source := payloadWith(map[string]string{"address.city": "madrid"})

	rows := Diff(&target, &source, "src")
	require.Len(t, rows, 1)
	assert.Equal(t, models.ClassificationEqual, rows[0].Classification)
}

func TestVisibleRows(t *testing.T) {
	rows := []models.MergeDiffRow{
		{Field: "a", Classification: models.ClassificationEqual},
		{Field: "b", Classification: models.ClassificationApply},
		{Field: "c", Classification: models.ClassificationConflict},
	}

	visible := VisibleRows(rows)
	require.Len(t, visible, 2)
	assert.Equal(t, "b", visible[0].Field)
	assert.Equal(t, "c", visible[1].Field)
}
