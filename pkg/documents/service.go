// Package documents implements the document resolution service
package documents

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/clientprofile"
	"github.com/Ramsey-B/fern/internal/repositories/document"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/validation"
	"github.com/Ramsey-B/fern/pkg/workflow"
)

// Service coordinates document ingestion, matching, enrichment and
// confirmation. The emitter and graph services are optional; a nil
// value disables that side effect.
type Service struct {
	cfg       config.Config
	documents *document.Repository
	profiles  *clientprofile.Repository
	scorer    *scoring.Scorer
	validator *validation.Validator
	emitter   *events.Emitter
	family    *graph.FamilyService
	clients   *graph.ProfileService
	logger    ectologger.Logger
}

// NewService creates a document service
func NewService(
	cfg config.Config,
	documents *document.Repository,
	profiles *clientprofile.Repository,
	validator *validation.Validator,
	emitter *events.Emitter,
	family *graph.FamilyService,
	clients *graph.ProfileService,
	logger ectologger.Logger,
) *Service {
	scorer := scoring.NewScorer(scoring.Policy{
		CandidateLimit:            cfg.CandidateLimit,
		BirthNameOverlapThreshold: cfg.BirthNameOverlapThreshold,
		NameOnlyOverlapThreshold:  cfg.NameOnlyOverlapThreshold,
		BirthNameScoreFloor:       cfg.BirthNameScoreFloor,
		BirthNameScoreCeiling:     cfg.BirthNameScoreCeiling,
		NameOnlyScoreFloor:        cfg.NameOnlyScoreFloor,
		NameOnlyScoreCeiling:      cfg.NameOnlyScoreCeiling,
		ProfileOverlapScoreWeight: cfg.ProfileOverlapScoreWeight,
	})

	return &Service{
		cfg:       cfg,
		documents: documents,
		profiles:  profiles,
		scorer:    scorer,
		validator: validator,
		emitter:   emitter,
		family:    family,
		clients:   clients,
		logger:    logger,
	}
}

// Scorer exposes the configured scorer for batch clustering
func (s *Service) Scorer() *scoring.Scorer {
	return s.scorer
}

// Get retrieves a document record
func (s *Service) Get(ctx context.Context, tenantID string, id string) (*models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Get")
	defer span.End()

	return s.documents.Get(ctx, tenantID, id)
}

// Create ingests one extracted document: normalizes completeness state,
// computes the initial candidate set and routes the workflow stage.
func (s *Service) Create(ctx context.Context, tenantID string, req *models.CreateDocumentRequest) (*models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Create")
	defer span.End()

	doc := &models.DocumentRecord{
		TenantID:   tenantID,
		SourceKind: req.SourceKind,
		BatchID:    req.BatchID,
		Payload:    req.Payload,
	}
	if doc.SourceKind == "" {
		doc.SourceKind = models.SourceKindUnknown
	}

	doc.MissingFields = s.validator.MissingFields(&doc.Payload, false)

	candidates, err := s.scoreCandidates(ctx, tenantID, doc)
	if err != nil {
		return nil, err
	}
	doc.MergeCandidates = candidates

	s.autoConfirm(ctx, doc)

	doc.WorkflowStage = s.routeAfterScoring(doc)

	created, err := s.documents.Create(ctx, doc)
	if err != nil {
		return nil, err
	}

	if created.ClientID != nil {
		if err := s.profiles.LinkDocument(ctx, tenantID, *created.ClientID, created.ID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": created.ID,
				"client_id":   *created.ClientID,
			}).Warn("Document auto-confirmed but profile link failed")
		}
	}

	if s.emitter != nil {
		if err := s.emitter.EmitDocumentCreated(ctx, created); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Document created but event emission failed")
		}
	}

	return created, nil
}

// Delete soft-deletes a document and unlinks it from its profile.
// Profile fields sourced from the document are left in place.
func (s *Service) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Delete")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.documents.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.unlinkEverywhere(ctx, doc)

	if s.emitter != nil {
		if err := s.emitter.EmitDocumentDeleted(ctx, tenantID, id, doc.SourceKind); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Document deleted but event emission failed")
		}
	}

	return nil
}

// Reprocess recomputes everything derivable for a document: missing
// fields, merge candidates and the workflow stage. Used after policy
// or extraction changes.
func (s *Service) Reprocess(ctx context.Context, tenantID string, id string) (*models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Reprocess")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	doc.MissingFields = s.validator.MissingFields(&doc.Payload, false)

	candidates, err := s.scoreCandidates(ctx, tenantID, doc)
	if err != nil {
		return nil, err
	}
	doc.MergeCandidates = candidates

	if doc.ClientID == nil {
		s.autoConfirm(ctx, doc)
		doc.WorkflowStage = s.routeAfterScoring(doc)
	}

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, err
	}

	if doc.ClientID != nil {
		if err := s.profiles.LinkDocument(ctx, tenantID, *doc.ClientID, doc.ID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
				"client_id":   *doc.ClientID,
			}).Warn("Document reprocessed but profile link failed")
		}
	}

	return doc, nil
}

// scoreCandidates ranks the tenant's client profiles, and the other
// documents of the subject's batch, against the subject payload. Both
// kinds land in one snapshot so enrichment can find document sources.
func (s *Service) scoreCandidates(ctx context.Context, tenantID string, doc *models.DocumentRecord) (models.CandidateList, error) {
	pool, err := s.profiles.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	candidates := s.scorer.ScoreProfiles(&doc.Payload, pool)

	if doc.BatchID != nil {
		batch, err := s.documents.ListByBatch(ctx, tenantID, *doc.BatchID)
		if err != nil {
			return nil, err
		}
		peers := make([]models.DocumentRecord, 0, len(batch))
		for _, peer := range batch {
			if peer.ID != doc.ID {
				peers = append(peers, peer)
			}
		}
		candidates = append(candidates, s.scorer.ScoreDocuments(&doc.Payload, peers)...)
		candidates = scoring.Rank(candidates, s.scorer.Policy().CandidateLimit)
	}

	return candidates, nil
}

// autoConfirm links a document to its single unambiguous profile
// candidate. A second profile candidate, whatever its score, keeps the
// decision with the operator. Document candidates are enrichment
// sources, not link targets, and never count here.
func (s *Service) autoConfirm(ctx context.Context, doc *models.DocumentRecord) {
	var top *models.MergeCandidate
	for i := range doc.MergeCandidates {
		if doc.MergeCandidates[i].ClientID == "" {
			continue
		}
		if top != nil {
			return
		}
		top = &doc.MergeCandidates[i]
	}
	if top == nil || top.Score < s.cfg.AutoConfirmScoreThreshold {
		return
	}

	clientID := top.ClientID
	doc.ClientID = &clientID
	doc.IdentityMatchFound = true

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"document_id": doc.ID,
		"client_id":   clientID,
		"score":       top.Score,
	}).Info("Auto-confirmed single high-score match")
}

// routeAfterScoring picks the stage for a freshly scored document. An
// auto-confirmed document is already past the match decision and
// routes like any resolved one.
func (s *Service) routeAfterScoring(doc *models.DocumentRecord) models.WorkflowStage {
	if doc.ClientID != nil {
		return workflow.AfterMatchResolution(s.matchResolvedContext(doc))
	}
	return workflow.InitialStage(s.workflowContext(doc))
}

// workflowContext snapshots the facts stage gating depends on
func (s *Service) workflowContext(doc *models.DocumentRecord) workflow.Context {
	return workflow.Context{
		DocumentExists:   doc.DeletedAt == nil,
		HasCandidates:    len(doc.MergeCandidates) > 0,
		MatchResolved:    doc.ClientID != nil || (doc.WorkflowStage != models.StageMatch && doc.WorkflowStage != models.StageUpload),
		HasMergeSources:  doc.IdentitySourceDocumentID != nil || mergeSourceCount(doc) > 0,
		ValidationPassed: len(doc.MissingFields) == 0 && len(s.validator.Issues(&doc.Payload, false)) == 0,
	}
}

// mergeSourceCount counts the candidates that could still feed a
// merge: other documents, and profiles other than the one the document
// is already linked to
func mergeSourceCount(doc *models.DocumentRecord) int {
	count := 0
	for _, candidate := range doc.MergeCandidates {
		if candidate.DocumentID != "" && candidate.DocumentID != doc.ID {
			count++
			continue
		}
		if candidate.ClientID == "" {
			continue
		}
		if doc.ClientID != nil && candidate.ClientID == *doc.ClientID {
			continue
		}
		count++
	}
	return count
}

// unlinkEverywhere removes a deleted document's profile links and, when
// a profile is left with no documents at all, retires its graph node.
// The profile row itself stays; deletion never cascades.
func (s *Service) unlinkEverywhere(ctx context.Context, doc *models.DocumentRecord) {
	owners, err := s.profiles.GetByDocumentIDs(ctx, doc.TenantID, []string{doc.ID})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"document_id": doc.ID,
		}).Warn("Document deleted but owning profile lookup failed")
		return
	}

	for i := range owners {
		owner := &owners[i]
		if err := s.profiles.UnlinkDocument(ctx, doc.TenantID, owner.ID, doc.ID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
				"client_id":   owner.ID,
			}).Warn("Document deleted but profile unlink failed")
			continue
		}

		if s.clients != nil && len(owner.DocumentIDs) == 1 && owner.DocumentIDs[0] == doc.ID {
			if err := s.clients.Delete(ctx, doc.TenantID, owner.ID); err != nil {
				s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"client_id": owner.ID,
				}).Warn("Profile emptied but graph retirement failed")
			}
		}
	}

	if s.family != nil && doc.FamilyReference.ClientID != "" && doc.ClientID != nil {
		if err := s.family.Unlink(ctx, doc.TenantID, doc.FamilyReference.ClientID, *doc.ClientID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
			}).Warn("Document deleted but family unlink failed")
		}
	}
}

// ResolveStep answers a navigation request for a document. Unreachable
// stages redirect instead of erroring.
func (s *Service) ResolveStep(ctx context.Context, tenantID string, id string, requested models.WorkflowStage) (models.WorkflowStage, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.ResolveStep")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		// Navigation never errors on a missing document; it redirects
		// to upload.
		return workflow.FallbackStep(requested, workflow.Context{}), nil
	}

	resolved := workflow.FallbackStep(requested, s.workflowContext(doc))
	if resolved != doc.WorkflowStage {
		if err := s.documents.UpdateStage(ctx, tenantID, id, resolved); err != nil {
			return resolved, err
		}
	}
	return resolved, nil
}
