package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
)

func keys(nationalID, passport, birthDate, name string) identity.Keys {
	return identity.Keys{
		NationalID: nationalID,
		Passport:   passport,
		BirthDate:  birthDate,
		NameTokens: identity.NameTokens(name),
	}
}

func TestScorer_Evaluate_ExactIdentifiers(t *testing.T) {
	scorer := NewScorer(DefaultPolicy())

	t.Run("national id match wins despite everything else differing", func(t *testing.T) {
		subject := keys("X1234567L", "", "19950512", "Jose Garcia")
		other := keys("X1234567L", "", "19800101", "Completely Different Person")

		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, 100, match.Score)
		assert.Equal(t, []string{models.ReasonIDExact}, match.Reasons)
		assert.Equal(t, []string{"X1234567L"}, match.IdentityOverlap)
	})

	t.Run("passport match when national ids differ", func(t *testing.T) {
		subject := keys("X1111111A", "P7654321", "", "Jose Garcia")
		other := keys("X2222222B", "P7654321", "", "Jose Garcia")

		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, 100, match.Score)
		assert.Equal(t, []string{models.ReasonPassportExact}, match.Reasons)
	})

	t.Run("empty identifiers never match each other", func(t *testing.T) {
		subject := keys("", "", "", "")
		other := keys("", "", "", "")

		_, ok := scorer.Evaluate(subject, other)
		assert.False(t, ok)
	})
}

func TestScorer_Evaluate_BirthDateAndName(t *testing.T) {
	scorer := NewScorer(DefaultPolicy())

	t.Run("partial overlap lands inside the band", func(t *testing.T) {
		subject := keys("", "", "19950512", "Jose Maria Garcia Lopez")
		other := keys("", "", "19950512", "Jose Maria Garcia Ruiz")

		// 3 of 4 tokens shared: 0.75 overlap against a 0.5 threshold
		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, []string{models.ReasonBirthDateAndName}, match.Reasons)
		assert.Equal(t, 85, match.Score)
		assert.Equal(t, []string{"19950512"}, match.IdentityOverlap)
		assert.Equal(t, []string{"GARCIA", "JOSE", "MARIA"}, match.NameOverlap)
	})

	t.Run("full overlap hits the ceiling", func(t *testing.T) {
		subject := keys("", "", "19950512", "Jose Garcia")
		other := keys("", "", "19950512", "Jose Garcia")

		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, 99, match.Score)
	})

	t.Run("overlap below threshold is not a candidate", func(t *testing.T) {
		subject := keys("", "", "19950512", "Jose Maria Garcia Lopez Ruiz")
		other := keys("", "", "19950512", "Jose Fernandez")

		_, ok := scorer.Evaluate(subject, other)
		assert.False(t, ok)
	})

	t.Run("different birth dates block the name only band", func(t *testing.T) {
		subject := keys("", "", "19950512", "Jose Garcia")
		other := keys("", "", "19800101", "Jose Garcia")

		_, ok := scorer.Evaluate(subject, other)
		assert.False(t, ok)
	})
}

func TestScorer_Evaluate_NameOnly(t *testing.T) {
	scorer := NewScorer(DefaultPolicy())

	t.Run("identical names without birth dates", func(t *testing.T) {
		subject := keys("", "", "", "Jose Garcia")
		other := keys("", "", "", "Jose Garcia")

		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, []string{models.ReasonNameOnlyHighOverlap}, match.Reasons)
		assert.Equal(t, 69, match.Score)
		assert.Empty(t, match.IdentityOverlap)
	})

	t.Run("one side missing birth date still qualifies", func(t *testing.T) {
		subject := keys("", "", "19950512", "Jose Garcia")
		other := keys("", "", "", "Jose Garcia")

		match, ok := scorer.Evaluate(subject, other)
		require.True(t, ok)
		assert.Equal(t, []string{models.ReasonNameOnlyHighOverlap}, match.Reasons)
	})

	t.Run("overlap below name only threshold", func(t *testing.T) {
		subject := keys("", "", "", "Jose Maria Garcia")
		other := keys("", "", "", "Jose Fernandez Ruiz")

		_, ok := scorer.Evaluate(subject, other)
		assert.False(t, ok)
	})
}

func TestScorer_Evaluate_Symmetric(t *testing.T) {
	scorer := NewScorer(DefaultPolicy())

	pairs := []struct {
		name string
		a, b identity.Keys
	}{
		{"exact id", keys("X1234567L", "", "", "Jose"), keys("X1234567L", "", "", "Maria")},
		{"birth and name", keys("", "", "19950512", "Jose Maria Garcia Lopez"), keys("", "", "19950512", "Jose Maria Garcia Ruiz")},
		{"name only", keys("", "", "", "Jose Garcia"), keys("", "", "", "Jose Garcia Lopez")},
	}

	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			forward, okF := scorer.Evaluate(tc.a, tc.b)
			reverse, okR := scorer.Evaluate(tc.b, tc.a)
			assert.Equal(t, okF, okR)
			assert.Equal(t, forward.Score, reverse.Score)
		})
	}
}

func TestScorer_ScoreProfiles_RankingAndCap(t *testing.T) {
	policy := DefaultPolicy()
	policy.CandidateLimit = 2
	scorer := NewScorer(policy)

	subject := models.Payload{}
	subject.SetField("identification.first_name", "Jose")
	subject.SetField("identification.surname", "Garcia")
	subject.SetField("identification.national_id", "X1234567L")
	subject.SetField("identification.birth_date", "12/05/1995")

	makeProfile := func(id, nationalID, birthDate, first, last string, updated time.Time) models.ClientProfile {
		payload := models.Payload{}
		payload.SetField("identification.first_name", first)
		payload.SetField("identification.surname", last)
		if nationalID != "" {
			payload.SetField("identification.national_id", nationalID)
		}
		if birthDate != "" {
			payload.SetField("identification.birth_date", birthDate)
		}
		return models.ClientProfile{ID: id, Payload: payload, UpdatedAt: updated}
	}

	now := time.Now()
	pool := []models.ClientProfile{
		makeProfile("name-match", "", "12/05/1995", "Jose", "Garcia", now),
		makeProfile("id-match-old", "X1234567L", "", "Someone", "Else", now.Add(-time.Hour)),
		makeProfile("id-match-new", "X1234567L", "", "Another", "Person", now),
		makeProfile("no-match", "Y9999999Z", "01/01/1980", "Maria", "Fernandez", now),
	}

	candidates := scorer.ScoreProfiles(&subject, pool)

	require.Len(t, candidates, 2)
	assert.Equal(t, "id-match-new", candidates[0].ClientID)
	assert.Equal(t, "id-match-old", candidates[1].ClientID)
	assert.Equal(t, 100, candidates[0].Score)
}

func TestScorer_ScoreDocuments(t *testing.T) {
	scorer := NewScorer(DefaultPolicy())

	subject := models.Payload{}
	subject.SetField("identification.first_name", "Jose")
	subject.SetField("identification.surname", "Garcia")
	subject.SetField("identification.passport_number", "P7654321")

	other := models.Payload{}
	other.SetField("identification.first_name", "Jose")
	other.SetField("identification.passport_number", "p 765-4321")

	pool := []models.DocumentRecord{
		{ID: "doc-1", Payload: other, UpdatedAt: time.Now()},
	}

	candidates := scorer.ScoreDocuments(&subject, pool)
	require.Len(t, candidates, 1)
	assert.Equal(t, "doc-1", candidates[0].DocumentID)
	assert.Equal(t, 100, candidates[0].Score)
	assert.Equal(t, []string{models.ReasonPassportExact}, candidates[0].Reasons)
}

func TestRank_MixedCandidateKinds(t *testing.T) {
	now := time.Now()
	merged := []models.MergeCandidate{
		{ClientID: "client-low", Score: 60, UpdatedAt: now},
		{DocumentID: "doc-high", Score: 100, UpdatedAt: now},
		{ClientID: "client-high", Score: 100, UpdatedAt: now.Add(time.Minute)},
		{DocumentID: "doc-mid", Score: 85, UpdatedAt: now},
	}

	ranked := Rank(merged, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "client-high", ranked[0].ClientID)
	assert.Equal(t, "doc-high", ranked[1].DocumentID)
	assert.Equal(t, "doc-mid", ranked[2].DocumentID)
}

func TestNameOverlapRatio(t *testing.T) {
	t.Run("empty sets yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, NameOverlapRatio(nil, []string{"JOSE"}))
		assert.Equal(t, 0.0, NameOverlapRatio([]string{"JOSE"}, nil))
	})

	t.Run("denominator is the larger set", func(t *testing.T) {
		a := []string{"JOSE", "GARCIA"}
		b := []string{"JOSE", "GARCIA", "LOPEZ", "RUIZ"}
		assert.Equal(t, 0.5, NameOverlapRatio(a, b))
		assert.Equal(t, 0.5, NameOverlapRatio(b, a))
	})

	t.Run("duplicate tokens count once", func(t *testing.T) {
		a := []string{"JOSE", "JOSE"}
		b := []string{"JOSE", "JOSE"}
		assert.Equal(t, 0.5, NameOverlapRatio(a, b))
	})
}
