// Package scoring ranks merge candidates for a subject document
package scoring

import (
	"math"
	"sort"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Policy holds the tunable scoring constants. The thresholds are
// intentionally asymmetric: a matching birth date lets a weaker name
// overlap through.
type Policy struct {
	CandidateLimit            int
	BirthNameOverlapThreshold float64
	NameOnlyOverlapThreshold  float64
	BirthNameScoreFloor       int
	BirthNameScoreCeiling     int
	NameOnlyScoreFloor        int
	NameOnlyScoreCeiling      int
	ProfileOverlapScoreWeight int
}

// DefaultPolicy returns the production scoring constants
func DefaultPolicy() Policy {
	return Policy{
		CandidateLimit:            10,
		BirthNameOverlapThreshold: 0.5,
		NameOnlyOverlapThreshold:  0.8,
		BirthNameScoreFloor:       70,
		BirthNameScoreCeiling:     99,
		NameOnlyScoreFloor:        55,
		NameOnlyScoreCeiling:      69,
		ProfileOverlapScoreWeight: 10,
	}
}

// Scorer produces ranked merge candidates
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer with the given policy
func NewScorer(policy Policy) *Scorer {
	if policy.CandidateLimit <= 0 {
		policy.CandidateLimit = DefaultPolicy().CandidateLimit
	}
	return &Scorer{policy: policy}
}

// Policy returns the scorer's active policy
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Match is the outcome of evaluating one subject/candidate pair
type Match struct {
	Score           int
	Reasons         []string
	IdentityOverlap []string
	NameOverlap     []string
}

// Evaluate applies the scoring policy to one pair of identity key
// sets. The second return value is false when the pair is not a
// candidate at all.
func (s *Scorer) Evaluate(subject, other identity.Keys) (Match, bool) {
	if subject.NationalID != "" && subject.NationalID == other.NationalID {
		return Match{
			Score:           100,
			Reasons:         []string{models.ReasonIDExact},
			IdentityOverlap: []string{subject.NationalID},
		}, true
	}

	if subject.Passport != "" && subject.Passport == other.Passport {
		return Match{
			Score:           100,
			Reasons:         []string{models.ReasonPassportExact},
			IdentityOverlap: []string{subject.Passport},
		}, true
	}

	overlap := NameOverlapRatio(subject.NameTokens, other.NameTokens)
	shared := sharedTokens(subject.NameTokens, other.NameTokens)

	bothBirthDates := subject.BirthDate != "" && other.BirthDate != ""
	if bothBirthDates && subject.BirthDate == other.BirthDate && overlap >= s.policy.BirthNameOverlapThreshold {
		return Match{
			Score:           s.bandScore(overlap, s.policy.BirthNameOverlapThreshold, s.policy.BirthNameScoreFloor, s.policy.BirthNameScoreCeiling),
			Reasons:         []string{models.ReasonBirthDateAndName},
			IdentityOverlap: []string{subject.BirthDate},
			NameOverlap:     shared,
		}, true
	}

	if !bothBirthDates && overlap >= s.policy.NameOnlyOverlapThreshold {
		return Match{
			Score:       s.bandScore(overlap, s.policy.NameOnlyOverlapThreshold, s.policy.NameOnlyScoreFloor, s.policy.NameOnlyScoreCeiling),
			Reasons:     []string{models.ReasonNameOnlyHighOverlap},
			NameOverlap: shared,
		}, true
	}

	return Match{}, false
}

// ScoreProfiles ranks a pool of client profiles against a subject
// payload. Results are sorted by score, ties broken by most recently
// updated profile, and capped at the candidate limit.
func (s *Scorer) ScoreProfiles(subject *models.Payload, pool []models.ClientProfile) []models.MergeCandidate {
	subjectKeys := identity.KeysFromPayload(subject)

	candidates := make([]models.MergeCandidate, 0)
	for i := range pool {
		profile := &pool[i]
		match, ok := s.Evaluate(subjectKeys, identity.KeysFromPayload(&profile.Payload))
		if !ok {
			continue
		}
		candidates = append(candidates, models.MergeCandidate{
			ClientID:        profile.ID,
			Score:           match.Score,
			Reasons:         match.Reasons,
			IdentityOverlap: match.IdentityOverlap,
			NameOverlap:     match.NameOverlap,
			UpdatedAt:       profile.UpdatedAt,
		})
	}

	return s.rank(candidates)
}

// ScoreDocuments ranks other documents against a subject payload. Used
// for identity enrichment sources and in-batch candidate lookup.
func (s *Scorer) ScoreDocuments(subject *models.Payload, pool []models.DocumentRecord) []models.MergeCandidate {
	subjectKeys := identity.KeysFromPayload(subject)

	candidates := make([]models.MergeCandidate, 0)
	for i := range pool {
		doc := &pool[i]
		match, ok := s.Evaluate(subjectKeys, identity.KeysFromPayload(&doc.Payload))
		if !ok {
			continue
		}
		candidates = append(candidates, models.MergeCandidate{
			DocumentID:      doc.ID,
			Score:           match.Score,
			Reasons:         match.Reasons,
			IdentityOverlap: match.IdentityOverlap,
			NameOverlap:     match.NameOverlap,
			UpdatedAt:       doc.UpdatedAt,
		})
	}

	return s.rank(candidates)
}

func (s *Scorer) rank(candidates []models.MergeCandidate) []models.MergeCandidate {
	return Rank(candidates, s.policy.CandidateLimit)
}

// Rank sorts candidates by score, ties broken by most recently updated
// source, and caps the list. Used directly when profile and document
// candidates are merged into one snapshot.
func Rank(candidates []models.MergeCandidate, limit int) []models.MergeCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// bandScore maps an overlap ratio in [threshold, 1] linearly into
// [floor, ceiling]
func (s *Scorer) bandScore(overlap, threshold float64, floor, ceiling int) int {
	if overlap >= 1 {
		return ceiling
	}
	span := 1 - threshold
	if span <= 0 {
		return ceiling
	}
	scaled := (overlap - threshold) / span
	return floor + int(math.Round(scaled*float64(ceiling-floor)))
}

// NameOverlapRatio is |intersection| / max(|a|, |b|). Symmetric by
// construction; empty token sets yield zero.
func NameOverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := sharedTokens(a, b)
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return float64(len(shared)) / float64(max)
}

func sharedTokens(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, token := range a {
		set[token] = struct{}{}
	}
	var shared []string
	seen := make(map[string]struct{})
	for _, token := range b {
		if _, ok := set[token]; !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		shared = append(shared, token)
	}
	sort.Strings(shared)
	return shared
}
