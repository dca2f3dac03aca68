package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ExtractionMessage is the payload published by the OCR extraction
// pipeline when a scanned document has been read
type ExtractionMessage struct {
	TenantID    string          `json:"tenant_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	SourceKind  string          `json:"source_kind"`
	DocumentID  string          `json:"document_id,omitempty"`
	Fields      *models.Payload `json:"fields"`
	ExtractedAt time.Time       `json:"extracted_at,omitempty"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string

	// Parsed content
	Extraction *ExtractionMessage
}

// ParseExtraction parses the message value as an extraction result
func (m *IncomingMessage) ParseExtraction() error {
	var msg ExtractionMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	if msg.Fields == nil {
		return fmt.Errorf("extraction message has no fields")
	}
	m.Extraction = &msg
	return nil
}

// GetTenantID returns the tenant ID from the message, falling back to
// the tenant header
func (m *IncomingMessage) GetTenantID() string {
	if m.Extraction != nil && m.Extraction.TenantID != "" {
		return m.Extraction.TenantID
	}
	return m.Headers["tenant_id"]
}

// GetBatchID returns the batch ID when the extraction came from a
// batch upload
func (m *IncomingMessage) GetBatchID() string {
	if m.Extraction != nil && m.Extraction.BatchID != "" {
		return m.Extraction.BatchID
	}
	return m.Headers["batch_id"]
}

// GetSourceKind returns the document source kind, defaulting to
// unknown when the extractor could not classify the scan
func (m *IncomingMessage) GetSourceKind() string {
	if m.Extraction != nil && m.Extraction.SourceKind != "" {
		return m.Extraction.SourceKind
	}
	if kind := m.Headers["source_kind"]; kind != "" {
		return kind
	}
	return models.SourceKindUnknown
}
