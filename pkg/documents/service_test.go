package documents

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/validation"
)

func newTestService() *Service {
	cfg := config.Config{
		CandidateLimit:            10,
		BirthNameOverlapThreshold: 0.5,
		NameOnlyOverlapThreshold:  0.8,
		BirthNameScoreFloor:       70,
		BirthNameScoreCeiling:     99,
		NameOnlyScoreFloor:        55,
		NameOnlyScoreCeiling:      69,
		AutoConfirmScoreThreshold: 90,
		ProfileOverlapScoreWeight: 10,
	}
	logger := zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
	return NewService(cfg, nil, nil, validation.New(), nil, nil, nil, logger)
}

func strPtr(s string) *string { return &s }

func TestService_AutoConfirm(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("single high score profile candidate links", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 95}},
		}
		svc.autoConfirm(ctx, doc)
		require.NotNil(t, doc.ClientID)
		assert.Equal(t, "client-1", *doc.ClientID)
		assert.True(t, doc.IdentityMatchFound)
	})

	t.Run("score below threshold stays unlinked", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 89}},
		}
		svc.autoConfirm(ctx, doc)
		assert.Nil(t, doc.ClientID)
	})

	t.Run("two profile candidates keep the decision with the operator", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{
				{ClientID: "client-1", Score: 100},
				{ClientID: "client-2", Score: 100},
			},
		}
		svc.autoConfirm(ctx, doc)
		assert.Nil(t, doc.ClientID)
	})

	t.Run("document candidates never block or trigger a link", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{
				{DocumentID: "doc-peer", Score: 100},
				{ClientID: "client-1", Score: 95},
			},
		}
		svc.autoConfirm(ctx, doc)
		require.NotNil(t, doc.ClientID)
		assert.Equal(t, "client-1", *doc.ClientID)

		onlyDocs := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{{DocumentID: "doc-peer", Score: 100}},
		}
		svc.autoConfirm(ctx, onlyDocs)
		assert.Nil(t, onlyDocs.ClientID)
	})
}

func TestService_RouteAfterScoring(t *testing.T) {
	svc := newTestService()

	t.Run("auto-confirmed document with nothing left to merge lands in review", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ClientID:        strPtr("client-1"),
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 95}},
		}
		assert.Equal(t, models.StageReview, svc.routeAfterScoring(doc))
	})

	t.Run("auto-confirmed document with a peer source routes to merge", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ID:       "doc-1",
			ClientID: strPtr("client-1"),
			MergeCandidates: models.CandidateList{
				{ClientID: "client-1", Score: 95},
				{DocumentID: "doc-peer", Score: 85},
			},
		}
		assert.Equal(t, models.StageMerge, svc.routeAfterScoring(doc))
	})

	t.Run("unresolved document with candidates goes to match", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 80}},
		}
		assert.Equal(t, models.StageMatch, svc.routeAfterScoring(doc))
	})

	t.Run("unresolved document without candidates goes to review", func(t *testing.T) {
		doc := &models.DocumentRecord{}
		assert.Equal(t, models.StageReview, svc.routeAfterScoring(doc))
	})
}

func TestMergeSourceCount(t *testing.T) {
	t.Run("linked profile is not a merge source", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ClientID:        strPtr("client-1"),
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 95}},
		}
		assert.Equal(t, 0, mergeSourceCount(doc))
	})

	t.Run("other profiles and documents count", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ClientID: strPtr("client-1"),
			MergeCandidates: models.CandidateList{
				{ClientID: "client-1", Score: 95},
				{ClientID: "client-2", Score: 80},
				{DocumentID: "doc-peer", Score: 85},
			},
		}
		assert.Equal(t, 2, mergeSourceCount(doc))
	})

	t.Run("the document itself is never its own source", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ID:              "doc-1",
			MergeCandidates: models.CandidateList{{DocumentID: "doc-1", Score: 100}},
		}
		assert.Equal(t, 0, mergeSourceCount(doc))
	})

	t.Run("unlinked document counts all profile candidates", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{
				{ClientID: "client-1", Score: 95},
				{ClientID: "client-2", Score: 80},
			},
		}
		assert.Equal(t, 2, mergeSourceCount(doc))
	})
}

func TestService_CandidateScore(t *testing.T) {
	svc := newTestService()

	t.Run("document candidate score is retrievable", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{
				{ClientID: "client-1", Score: 95},
				{DocumentID: "doc-peer", Score: 87},
			},
		}
		score := svc.candidateScore(doc, "doc-peer")
		require.NotNil(t, score)
		assert.Equal(t, 87, *score)
	})

	t.Run("unknown source has no score", func(t *testing.T) {
		doc := &models.DocumentRecord{
			MergeCandidates: models.CandidateList{{ClientID: "client-1", Score: 95}},
		}
		assert.Nil(t, svc.candidateScore(doc, "doc-elsewhere"))
	})
}

func TestRejectMatch(t *testing.T) {
	t.Run("reject reports the profile to unlink", func(t *testing.T) {
		doc := &models.DocumentRecord{
			ClientID:           strPtr("client-1"),
			IdentityMatchFound: true,
		}
		prior := rejectMatch(doc)
		require.NotNil(t, prior)
		assert.Equal(t, "client-1", *prior)
		assert.Nil(t, doc.ClientID)
		assert.False(t, doc.IdentityMatchFound)
	})

	t.Run("rejecting an unlinked document unlinks nothing", func(t *testing.T) {
		doc := &models.DocumentRecord{}
		assert.Nil(t, rejectMatch(doc))
	})
}
