// Package processor handles incoming extraction messages. This is the
// ingestion layer: each message becomes a document record routed into
// the resolution workflow.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/documents"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Processor turns extraction results into document records
type Processor struct {
	logger    ectologger.Logger
	documents *documents.Service
}

// NewProcessor creates a new extraction message processor
func NewProcessor(logger ectologger.Logger, documents *documents.Service) *Processor {
	return &Processor{
		logger:    logger,
		documents: documents,
	}
}

// HandleMessage processes one incoming extraction message. Errors are
// returned so the consumer can hold the offset and retry.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	tenantID := msg.GetTenantID()
	if tenantID == "" {
		// No tenant means no retry can ever succeed. Log and drop.
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("Extraction message missing tenant id, dropping")
		return nil
	}

	if msg.Extraction == nil || msg.Extraction.Fields == nil {
		return fmt.Errorf("extraction message has no parsed fields")
	}

	req := &models.CreateDocumentRequest{
		SourceKind: msg.GetSourceKind(),
		Payload:    *msg.Extraction.Fields,
	}
	if batchID := msg.GetBatchID(); batchID != "" {
		req.BatchID = &batchID
	}

	doc, err := p.documents.Create(ctx, tenantID, req)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id":   tenantID,
			"source_kind": req.SourceKind,
		}).Error("Failed to create document from extraction message")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"document_id": doc.ID,
		"source_kind": doc.SourceKind,
		"stage":       doc.WorkflowStage,
		"candidates":  len(doc.MergeCandidates),
	}).Info("Ingested extracted document")

	return nil
}
