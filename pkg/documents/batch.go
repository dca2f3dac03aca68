package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/clustering"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// BatchUpload ingests several documents as one batch and clusters them
// by identity. Batch merge is only offered when the largest cluster
// has more than one member.
func (s *Service) BatchUpload(ctx context.Context, tenantID string, req *models.BatchUploadRequest) (*models.BatchUploadResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.BatchUpload")
	defer span.End()

	batchID := uuid.New().String()

	docs := make([]models.DocumentRecord, 0, len(req.Documents))
	for i := range req.Documents {
		create := req.Documents[i]
		create.BatchID = &batchID
		doc, err := s.Create(ctx, tenantID, &create)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	clusterer := clustering.NewClusterer(s.scorer, func(payload *models.Payload) int {
		return len(s.validator.MissingFields(payload, false))
	})
	groups, batchMergeEnabled := clusterer.Cluster(docs)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id":            batchID,
		"document_count":      len(docs),
		"group_count":         len(groups),
		"batch_merge_enabled": batchMergeEnabled,
	}).Info("Batch upload clustered")

	return &models.BatchUploadResponse{
		BatchID:           batchID,
		Documents:         docs,
		Groups:            groups,
		BatchMergeEnabled: batchMergeEnabled,
	}, nil
}
