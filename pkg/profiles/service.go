// Package profiles implements client profile operations
package profiles

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/clientprofile"
	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service handles profile-level duplicate detection
type Service struct {
	cfg      config.Config
	profiles *clientprofile.Repository
	scorer   *scoring.Scorer
	logger   ectologger.Logger
}

// NewService creates a profile service sharing the document scorer's
// policy
func NewService(cfg config.Config, profiles *clientprofile.Repository, scorer *scoring.Scorer, logger ectologger.Logger) *Service {
	return &Service{
		cfg:      cfg,
		profiles: profiles,
		scorer:   scorer,
		logger:   logger,
	}
}

// Get retrieves a client profile
func (s *Service) Get(ctx context.Context, tenantID string, id string) (*models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "profiles.Service.Get")
	defer span.End()

	return s.profiles.Get(ctx, tenantID, id)
}

// MergeCandidates ranks other profiles that likely describe the same
// person as the given profile. Candidates carry a fillable field count
// so operators can see what a merge would gain. Force includes
// low-score candidates that would normally be suppressed.
func (s *Service) MergeCandidates(ctx context.Context, tenantID string, id string, force bool) (*models.ProfileMergeCandidatesResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "profiles.Service.MergeCandidates")
	defer span.End()

	subject, err := s.profiles.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	pool, err := s.profiles.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	subjectKeys := identity.KeysFromPayload(&subject.Payload)
	candidates := make([]models.MergeCandidate, 0)
	for i := range pool {
		other := &pool[i]
		if other.ID == subject.ID {
			continue
		}

		match, ok := s.scorer.Evaluate(subjectKeys, identity.KeysFromPayload(&other.Payload))
		if !ok {
			continue
		}
		if !force && match.Score < s.cfg.HighConfidenceThreshold {
			continue
		}

		candidates = append(candidates, models.MergeCandidate{
			ClientID:        other.ID,
			Score:           match.Score,
			Reasons:         match.Reasons,
			IdentityOverlap: match.IdentityOverlap,
			NameOverlap:     match.NameOverlap,
			FillableFields:  fillableFields(&subject.Payload, &other.Payload),
			UpdatedAt:       other.UpdatedAt,
		})
	}

	ranked := rankProfileCandidates(candidates, s.cfg.ProfileOverlapScoreWeight, s.cfg.CandidateLimit)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"client_id":       id,
		"candidate_count": len(ranked),
		"force":           force,
	}).Debug("Computed profile merge candidates")

	return &models.ProfileMergeCandidatesResponse{
		ClientID:        subject.ID,
		MergeCandidates: ranked,
	}, nil
}

// fillableFields counts the fields the other profile could contribute
// to the subject
func fillableFields(subject, other *models.Payload) int {
	count := 0
	for _, field := range models.PayloadFieldNames() {
		if !subject.HasField(field) && other.HasField(field) {
			count++
		}
	}
	return count
}

// rankProfileCandidates orders by score weighted with the merge gain,
// so among equal identity matches the more enriching merge surfaces
// first
func rankProfileCandidates(candidates []models.MergeCandidate, overlapWeight int, limit int) []models.MergeCandidate {
	weight := func(c models.MergeCandidate) int {
		return c.Score*overlapWeight + c.FillableFields
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return weight(candidates[i]) > weight(candidates[j])
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
