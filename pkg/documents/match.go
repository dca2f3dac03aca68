package documents

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/workflow"
)

// Candidates recomputes and persists the merge candidate snapshot for
// a document. Snapshots are advisory and always recomputable.
func (s *Service) Candidates(ctx context.Context, tenantID string, id string) ([]models.MergeCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Candidates")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	candidates, err := s.scoreCandidates(ctx, tenantID, doc)
	if err != nil {
		return nil, err
	}

	if err := s.documents.UpdateCandidates(ctx, tenantID, id, candidates); err != nil {
		return nil, err
	}

	return candidates, nil
}

// ClientMatch resolves the match stage for a document. Confirm links
// the document to the chosen profile; reject records that no standing
// profile fits. Either way the stage advances deterministically.
func (s *Service) ClientMatch(ctx context.Context, tenantID string, id string, req *models.ClientMatchRequest) (*models.ClientMatchResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.ClientMatch")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var unlink *string
	switch req.Action {
	case models.ClientMatchActionConfirm:
		if err := s.confirmMatch(ctx, doc, req.ClientID); err != nil {
			return nil, err
		}
	case models.ClientMatchActionReject:
		unlink = rejectMatch(doc)
	default:
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown match action %q", req.Action))
	}

	next, err := workflow.Transition(doc.WorkflowStage, s.stageAfterMatch(doc), s.matchResolvedContext(doc))
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusConflict, err.Error())
	}
	doc.WorkflowStage = next

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, err
	}

	if doc.ClientID != nil {
		if err := s.profiles.LinkDocument(ctx, tenantID, *doc.ClientID, doc.ID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
				"client_id":   *doc.ClientID,
			}).Warn("Match confirmed but profile link failed")
		}
	}

	if unlink != nil {
		if err := s.profiles.UnlinkDocument(ctx, tenantID, *unlink, doc.ID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
				"client_id":   *unlink,
			}).Warn("Match rejected but profile unlink failed")
		}
	}

	return &models.ClientMatchResponse{
		Document:      doc,
		WorkflowStage: doc.WorkflowStage,
	}, nil
}

func (s *Service) confirmMatch(ctx context.Context, doc *models.DocumentRecord, clientID *string) error {
	chosen := ""
	if clientID != nil {
		chosen = *clientID
	}
	if chosen == "" {
		// Default to the top profile candidate when the operator
		// confirms without naming one. Document candidates cannot be
		// confirmed.
		for _, candidate := range doc.MergeCandidates {
			if candidate.ClientID != "" {
				chosen = candidate.ClientID
				break
			}
		}
		if chosen == "" {
			return httperror.NewHTTPError(http.StatusBadRequest, "no candidate to confirm")
		}
	}

	found := false
	for _, candidate := range doc.MergeCandidates {
		if candidate.ClientID != "" && candidate.ClientID == chosen {
			found = true
			break
		}
	}
	if !found {
		return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("client %s is not a candidate for document %s", chosen, doc.ID))
	}

	if _, err := s.profiles.Get(ctx, doc.TenantID, chosen); err != nil {
		return err
	}

	doc.ClientID = &chosen
	doc.IdentityMatchFound = true
	return nil
}

// rejectMatch clears the match decision and returns the previously
// linked profile, when one was attached, so the caller can unlink it.
// Rejection fully reverses an earlier confirm or auto-confirm.
func rejectMatch(doc *models.DocumentRecord) *string {
	prior := doc.ClientID
	doc.ClientID = nil
	doc.IdentityMatchFound = false
	return prior
}

// stageAfterMatch routes the document after a match decision
func (s *Service) stageAfterMatch(doc *models.DocumentRecord) models.WorkflowStage {
	return workflow.AfterMatchResolution(s.matchResolvedContext(doc))
}

// matchResolvedContext is the workflow snapshot immediately after a
// match decision, before the new stage is persisted
func (s *Service) matchResolvedContext(doc *models.DocumentRecord) workflow.Context {
	ctx := s.workflowContext(doc)
	ctx.MatchResolved = true
	return ctx
}
