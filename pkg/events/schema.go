package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of event
type EventType string

const (
	// Document events
	EventTypeDocumentCreated   EventType = "document.created"
	EventTypeDocumentConfirmed EventType = "document.confirmed"
	EventTypeDocumentMerged    EventType = "document.merged"
	EventTypeDocumentDeleted   EventType = "document.deleted"

	// Profile events
	EventTypeProfileMerged EventType = "profile.merged"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// DocumentCreatedEvent is emitted when a scanned document record is created
type DocumentCreatedEvent struct {
	BaseEvent
	DocumentID string          `json:"document_id"`
	SourceKind string          `json:"source_kind"`
	BatchID    string          `json:"batch_id,omitempty"`
	Stage      string          `json:"stage"`
	Payload    json.RawMessage `json:"payload"`
}

// DocumentConfirmedEvent is emitted when an operator confirms a document
type DocumentConfirmedEvent struct {
	BaseEvent
	DocumentID string          `json:"document_id"`
	SourceKind string          `json:"source_kind"`
	ClientID   string          `json:"client_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// DocumentMergedEvent is emitted when enrichment fields are applied onto a document
type DocumentMergedEvent struct {
	BaseEvent
	DocumentID    string          `json:"document_id"`
	SourceKind    string          `json:"source_kind"`
	AppliedFields []string        `json:"applied_fields"`
	Payload       json.RawMessage `json:"payload"`
}

// DocumentDeletedEvent is emitted when a document is soft-deleted
type DocumentDeletedEvent struct {
	BaseEvent
	DocumentID string `json:"document_id"`
	SourceKind string `json:"source_kind"`
}

// ProfileMergedEvent is emitted when document fields land on a client profile
type ProfileMergedEvent struct {
	BaseEvent
	ClientID        string   `json:"client_id"`
	SourceDocuments []string `json:"source_documents"`
	AppliedFields   []string `json:"applied_fields"`
	Version         int      `json:"version"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType, tenantID string) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		TenantID:      tenantID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
