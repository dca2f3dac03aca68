package documents

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EnrichByIdentity previews or applies field enrichment from another
// document believed to describe the same person. Preview never writes;
// apply is all-or-nothing.
func (s *Service) EnrichByIdentity(ctx context.Context, tenantID string, id string, req *models.EnrichByIdentityRequest) (*models.EnrichByIdentityResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.EnrichByIdentity")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	source, err := s.documents.Get(ctx, tenantID, req.SourceDocumentID)
	if err != nil {
		return nil, err
	}

	rows := merging.Diff(&doc.Payload, &source.Payload, source.ID)
	merging.Annotate(rows, s.candidateScore(doc, source.ID), sameBatch(doc, source), merging.ConfidencePolicy{
		HighThreshold:   s.cfg.HighConfidenceThreshold,
		ConflictCeiling: s.cfg.ConflictConfidenceCeiling,
	})

	resp := &models.EnrichByIdentityResponse{
		DocumentID:               doc.ID,
		IdentityMatchFound:       doc.IdentityMatchFound,
		IdentitySourceDocumentID: source.ID,
		EnrichmentPreview:        applyRows(rows),
		EnrichmentSkipped:        conflictRows(rows),
		MergeCandidates:          doc.MergeCandidates,
		Payload:                  doc.Payload,
	}

	if !req.Apply {
		resp.MissingFields = s.validator.MissingFields(&doc.Payload, false)
		resp.ValidationIssues = s.validator.Issues(&doc.Payload, false)
		return resp, nil
	}

	updated, applied, skipped, err := merging.Apply(doc.Payload, rows, merging.ApplyOptions{
		SelectedFields: req.SelectedFields,
		AllowConflicts: len(req.SelectedFields) > 0,
		Validate:       s.validator.FieldIssues,
	})
	if err != nil {
		var conflictErr *merging.ConflictError
		if errors.As(err, &conflictErr) {
			return nil, httperror.NewHTTPError(http.StatusConflict, err.Error())
		}
		var validationErr *merging.ValidationError
		if errors.As(err, &validationErr) {
			resp.ValidationIssues = validationErr.Issues
			return resp, httperror.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return nil, err
	}

	doc.Payload = updated
	doc.IdentityMatchFound = true
	sourceID := source.ID
	doc.IdentitySourceDocumentID = &sourceID
	doc.MissingFields = s.validator.MissingFields(&doc.Payload, false)

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, err
	}

	if s.emitter != nil && len(applied) > 0 {
		if err := s.emitter.EmitDocumentMerged(ctx, doc, applied); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Enrichment applied but event emission failed")
		}
	}

	resp.IdentityMatchFound = true
	resp.AppliedFields = applied
	resp.SkippedFields = skipped
	resp.MissingFields = doc.MissingFields
	resp.ValidationIssues = s.validator.Issues(&doc.Payload, false)
	resp.Payload = doc.Payload
	return resp, nil
}

// candidateScore looks up the source document's score in the subject's
// candidate snapshot, when it appears there
func (s *Service) candidateScore(doc *models.DocumentRecord, sourceID string) *int {
	for _, candidate := range doc.MergeCandidates {
		if candidate.DocumentID == sourceID {
			score := candidate.Score
			return &score
		}
	}
	return nil
}

func sameBatch(a, b *models.DocumentRecord) bool {
	return a.BatchID != nil && b.BatchID != nil && *a.BatchID == *b.BatchID
}

func applyRows(rows []models.MergeDiffRow) []models.MergeDiffRow {
	out := make([]models.MergeDiffRow, 0, len(rows))
	for _, row := range rows {
		if row.Classification == models.ClassificationApply {
			out = append(out, row)
		}
	}
	return out
}

func conflictRows(rows []models.MergeDiffRow) []models.MergeDiffRow {
	out := make([]models.MergeDiffRow, 0, len(rows))
	for _, row := range rows {
		if row.Classification == models.ClassificationConflict {
			out = append(out, row)
		}
	}
	return out
}
