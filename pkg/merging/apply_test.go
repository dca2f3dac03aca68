package merging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func enrichmentFixture() (models.Payload, []models.MergeDiffRow) {
	target := payloadWith(map[string]string{
		"identification.first_name": "Jose",
		"address.city":              "Madrid",
	})
	source := payloadWith(map[string]string{
		"identification.first_name": "Jose",
		"identification.surname":    "Garcia",
		"identification.birth_date": "12/05/1995",
		"address.city":              "Barcelona",
	})
	return target, Diff(&target, &source, "doc-source")
}

func TestApply_DefaultSelection(t *testing.T) {
	target, rows := enrichmentFixture()

	updated, applied, skipped, err := Apply(target, rows, ApplyOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"identification.surname", "identification.birth_date"}, applied)
	assert.Equal(t, []string{"address.city"}, skipped)

	assert.Equal(t, "Garcia", updated.Field("identification.surname"))
	assert.Equal(t, "12/05/1995", updated.Field("identification.birth_date"))
	assert.Equal(t, "Madrid", updated.Field("address.city"), "conflicted field keeps the current value")
}

func TestApply_Idempotent(t *testing.T) {
	target, rows := enrichmentFixture()

	updated, _, _, err := Apply(target, rows, ApplyOptions{})
	require.NoError(t, err)

	again, applied, _, err := Apply(updated, Diff(&updated, &updated, "doc-source"), ApplyOptions{})
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, updated, again)
}

func TestApply_ExplicitSelection(t *testing.T) {
	t.Run("unselected apply rows are skipped", func(t *testing.T) {
		target, rows := enrichmentFixture()

		updated, applied, skipped, err := Apply(target, rows, ApplyOptions{
			SelectedFields: []string{"identification.surname"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"identification.surname"}, applied)
		assert.Contains(t, skipped, "identification.birth_date")
		assert.Equal(t, "", updated.Field("identification.birth_date"))
	})

	t.Run("selected conflict without resolution fails", func(t *testing.T) {
		target, rows := enrichmentFixture()

		_, _, _, err := Apply(target, rows, ApplyOptions{
			SelectedFields: []string{"address.city"},
		})
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, []string{"address.city"}, conflictErr.Fields)
	})

	t.Run("selected conflict with resolution overwrites", func(t *testing.T) {
		target, rows := enrichmentFixture()

		updated, applied, _, err := Apply(target, rows, ApplyOptions{
			SelectedFields: []string{"address.city"},
			AllowConflicts: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"address.city"}, applied)
		assert.Equal(t, "Barcelona", updated.Field("address.city"))
	})

	t.Run("selecting an equal row only reports it skipped", func(t *testing.T) {
		target, rows := enrichmentFixture()

		updated, applied, skipped, err := Apply(target, rows, ApplyOptions{
			SelectedFields: []string{"identification.first_name"},
		})
		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.Contains(t, skipped, "identification.first_name")
		assert.Equal(t, "Jose", updated.Field("identification.first_name"))
	})
}

func TestApply_ValidationRejectsWholeWrite(t *testing.T) {
	target, rows := enrichmentFixture()

	failBirthDate := func(field, value string) []models.ValidationIssue {
		if field == "identification.birth_date" {
			return []models.ValidationIssue{{Field: field, Code: "invalid_format", Message: "bad date"}}
		}
		return nil
	}

	updated, applied, skipped, err := Apply(target, rows, ApplyOptions{Validate: failBirthDate})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, "identification.birth_date", validationErr.Issues[0].Field)

	assert.Empty(t, applied)
	assert.Empty(t, skipped)
	assert.Equal(t, target, updated, "no field is written when any selected value fails")
	assert.Equal(t, "", updated.Field("identification.surname"))
}

func TestApply_ErrorTypes(t *testing.T) {
	conflictErr := &ConflictError{Fields: []string{"address.city"}}
	assert.Contains(t, conflictErr.Error(), "address.city")
	assert.False(t, errors.As(error(conflictErr), new(*ValidationError)))

	validationErr := &ValidationError{Issues: []models.ValidationIssue{{Field: "extra.iban"}}}
	assert.Contains(t, validationErr.Error(), "1 issue")
}
