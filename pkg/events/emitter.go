// Package events handles event emission for document lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for document and profile lifecycles
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func documentEvent(eventType string, doc *models.DocumentRecord) *kafka.DocumentEvent {
	event := &kafka.DocumentEvent{
		EventType:  eventType,
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		SourceKind: doc.SourceKind,
		Stage:      string(doc.WorkflowStage),
	}
	if doc.ClientID != nil {
		event.ClientID = *doc.ClientID
	}
	if doc.BatchID != nil {
		event.BatchID = *doc.BatchID
	}
	if data, err := json.Marshal(doc.Payload); err == nil {
		event.Payload = data
	}
	return event
}

// EmitDocumentCreated emits a document created event
func (e *Emitter) EmitDocumentCreated(ctx context.Context, doc *models.DocumentRecord) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDocumentCreated")
	defer span.End()

	if err := e.producer.PublishDocumentEvent(ctx, documentEvent(string(EventTypeDocumentCreated), doc)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit document.created event")
		return err
	}

	return nil
}

// EmitDocumentConfirmed emits a document confirmed event
func (e *Emitter) EmitDocumentConfirmed(ctx context.Context, doc *models.DocumentRecord) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDocumentConfirmed")
	defer span.End()

	if err := e.producer.PublishDocumentEvent(ctx, documentEvent(string(EventTypeDocumentConfirmed), doc)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit document.confirmed event")
		return err
	}

	return nil
}

// EmitDocumentMerged emits a document merged event after an enrichment
// apply wrote fields onto the document
func (e *Emitter) EmitDocumentMerged(ctx context.Context, doc *models.DocumentRecord, appliedFields []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDocumentMerged")
	defer span.End()

	event := documentEvent(string(EventTypeDocumentMerged), doc)
	mergeData := map[string]any{
		"schema_version": SchemaVersion,
		"applied_fields": appliedFields,
		"payload":        doc.Payload,
	}
	if data, err := json.Marshal(mergeData); err == nil {
		event.Payload = data
	}

	if err := e.producer.PublishDocumentEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit document.merged event")
		return err
	}

	return nil
}

// EmitDocumentDeleted emits a document deleted event
func (e *Emitter) EmitDocumentDeleted(ctx context.Context, tenantID string, documentID string, sourceKind string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDocumentDeleted")
	defer span.End()

	event := &kafka.DocumentEvent{
		EventType:  string(EventTypeDocumentDeleted),
		TenantID:   tenantID,
		DocumentID: documentID,
		SourceKind: sourceKind,
	}

	if err := e.producer.PublishDocumentEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit document.deleted event")
		return err
	}

	return nil
}

// EmitProfileMerged emits a profile merged event after document fields
// were applied onto a client profile
func (e *Emitter) EmitProfileMerged(ctx context.Context, profile *models.ClientProfile, sourceDocuments []string, appliedFields []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitProfileMerged")
	defer span.End()

	event := &kafka.ProfileEvent{
		EventType:       string(EventTypeProfileMerged),
		TenantID:        profile.TenantID,
		ClientID:        profile.ID,
		SourceDocuments: sourceDocuments,
		AppliedFields:   appliedFields,
		Version:         profile.Version,
	}

	if err := e.producer.PublishProfileEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit profile.merged event")
		return err
	}

	return nil
}
