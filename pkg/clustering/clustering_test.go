package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
)

func doc(id string, fields map[string]string) models.DocumentRecord {
	payload := models.Payload{}
	for name, value := range fields {
		payload.SetField(name, value)
	}
	return models.DocumentRecord{ID: id, Payload: payload}
}

func groupFor(t *testing.T, groups []models.BatchGroup, docID string) models.BatchGroup {
	t.Helper()
	for _, g := range groups {
		for _, id := range g.DocumentIDs {
			if id == docID {
				return g
			}
		}
	}
	t.Fatalf("document %s not in any group", docID)
	return models.BatchGroup{}
}

func TestClusterer_SameIdentitySameGroup(t *testing.T) {
	clusterer := NewClusterer(scoring.NewScorer(scoring.DefaultPolicy()), nil)

	passport := doc("passport", map[string]string{
		"identification.first_name":  "Jose",
		"identification.surname":     "Garcia",
		"identification.national_id": "X1234567L",
		"identification.birth_date":  "12/05/1995",
		"address.city":               "Madrid",
	})
	questionnaire := doc("questionnaire", map[string]string{
		"identification.first_name":  "Jose",
		"identification.national_id": "x-1234567-l",
	})
	stranger := doc("stranger", map[string]string{
		"identification.first_name":  "Maria",
		"identification.surname":     "Fernandez",
		"identification.national_id": "Y9999999Z",
	})

	batches := [][]models.DocumentRecord{
		{passport, questionnaire, stranger},
		{stranger, questionnaire, passport},
	}

	for _, batch := range batches {
		groups, enabled := clusterer.Cluster(batch)

		require.Len(t, groups, 2)
		assert.True(t, enabled)

		joseGroup := groupFor(t, groups, "passport")
		assert.ElementsMatch(t, []string{"passport", "questionnaire"}, joseGroup.DocumentIDs)
		assert.Equal(t, "passport", joseGroup.RepresentativeID)
		assert.True(t, joseGroup.Active)

		assert.False(t, groupFor(t, groups, "stranger").Active)
	}
}

func TestClusterer_UnrelatedDocumentsStaySeparate(t *testing.T) {
	clusterer := NewClusterer(scoring.NewScorer(scoring.DefaultPolicy()), nil)

	groups, enabled := clusterer.Cluster([]models.DocumentRecord{
		doc("a", map[string]string{"identification.first_name": "Jose", "identification.national_id": "X1111111A"}),
		doc("b", map[string]string{"identification.first_name": "Maria", "identification.national_id": "Y2222222B"}),
		doc("c", map[string]string{"identification.first_name": "Pedro", "identification.national_id": "Z3333333C"}),
	})

	require.Len(t, groups, 3)
	assert.False(t, enabled, "a largest group of one disables batch merging")
	for _, g := range groups {
		assert.Len(t, g.DocumentIDs, 1)
		assert.False(t, g.Active)
	}
}

func TestClusterer_MostCompleteDocumentSeedsGroup(t *testing.T) {
	clusterer := NewClusterer(scoring.NewScorer(scoring.DefaultPolicy()), nil)

	sparse := doc("sparse", map[string]string{
		"identification.first_name":  "Jose",
		"identification.national_id": "X1234567L",
	})
	rich := doc("rich", map[string]string{
		"identification.first_name":  "Jose",
		"identification.surname":     "Garcia",
		"identification.national_id": "X1234567L",
		"identification.birth_date":  "12/05/1995",
		"address.street":             "Gran Via",
		"address.city":               "Madrid",
	})

	groups, enabled := clusterer.Cluster([]models.DocumentRecord{sparse, rich})

	require.Len(t, groups, 1)
	assert.True(t, enabled)
	assert.Equal(t, "rich", groups[0].RepresentativeID)
}

func TestClusterer_QualityCountsMissingRequired(t *testing.T) {
	missingRequired := func(payload *models.Payload) int {
		if payload.HasField("identification.birth_date") {
			return 0
		}
		return 1
	}
	clusterer := NewClusterer(scoring.NewScorer(scoring.DefaultPolicy()), missingRequired)

	complete := doc("complete", map[string]string{
		"identification.first_name":  "Jose",
		"identification.national_id": "X1234567L",
		"identification.birth_date":  "12/05/1995",
	})
	incomplete := doc("incomplete", map[string]string{
		"identification.first_name":  "Jose",
		"identification.national_id": "X1234567L",
		"address.city":               "Madrid",
	})

	groups, _ := clusterer.Cluster([]models.DocumentRecord{incomplete, complete})

	require.Len(t, groups, 1)
	assert.Equal(t, "complete", groups[0].RepresentativeID)
}

func TestClusterer_EmptyBatch(t *testing.T) {
	clusterer := NewClusterer(scoring.NewScorer(scoring.DefaultPolicy()), nil)

	groups, enabled := clusterer.Cluster(nil)
	assert.Nil(t, groups)
	assert.False(t, enabled)
}
