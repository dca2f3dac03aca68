package models

import (
	"time"

	"github.com/lib/pq"
)

// Source kinds for ingested documents
const (
	SourceKindPassport      = "passport"
	SourceKindResidencyCard = "nie_tie"
	SourceKindVisa          = "visa"
	SourceKindQuestionnaire = "anketa"
	SourceKindFamiliar      = "familiar"
	SourceKindUnknown       = "unknown"
)

// DocumentRecord represents one ingested, extracted document
type DocumentRecord struct {
	ID                       string          `json:"id" db:"id"`
	TenantID                 string          `json:"tenant_id" db:"tenant_id"`
	SourceKind               string          `json:"source_kind" db:"source_kind"`
	WorkflowStage            WorkflowStage   `json:"workflow_stage" db:"workflow_stage"`
	ClientID                 *string         `json:"client_id,omitempty" db:"client_id"`
	BatchID                  *string         `json:"batch_id,omitempty" db:"batch_id"`
	Payload                  Payload         `json:"payload" db:"payload"`
	MissingFields            pq.StringArray  `json:"missing_fields" db:"missing_fields"`
	MergeCandidates          CandidateList   `json:"merge_candidates" db:"merge_candidates"`
	FamilyLinks              pq.StringArray  `json:"family_links" db:"family_links"`
	FamilyReference          FamilyReference `json:"family_reference" db:"family_reference"`
	IdentityMatchFound       bool            `json:"identity_match_found" db:"identity_match_found"`
	IdentitySourceDocumentID *string         `json:"identity_source_document_id,omitempty" db:"identity_source_document_id"`
	CreatedAt                time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt                *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateDocumentRequest is the request for ingesting a document
type CreateDocumentRequest struct {
	SourceKind string  `json:"source_kind" validate:"omitempty,oneof=passport nie_tie visa anketa familiar unknown"`
	BatchID    *string `json:"batch_id,omitempty"`
	Payload    Payload `json:"payload"`
}

// ConfirmDocumentRequest carries the operator-confirmed payload
type ConfirmDocumentRequest struct {
	Payload Payload `json:"payload"`
}

// Client match resolution actions
const (
	ClientMatchActionConfirm = "confirm"
	ClientMatchActionReject  = "reject"
)

// ClientMatchRequest resolves the match stage for a document
type ClientMatchRequest struct {
	Action   string  `json:"action" validate:"required,oneof=confirm reject"`
	ClientID *string `json:"client_id,omitempty"`
}

// ClientMatchResponse returns the updated document and stage
type ClientMatchResponse struct {
	Document      *DocumentRecord `json:"document"`
	WorkflowStage WorkflowStage   `json:"workflow_stage"`
}

// EnrichByIdentityRequest previews or applies identity-based enrichment
type EnrichByIdentityRequest struct {
	Apply            bool     `json:"apply"`
	SourceDocumentID string   `json:"source_document_id" validate:"required"`
	SelectedFields   []string `json:"selected_fields,omitempty"`
}

// EnrichByIdentityResponse carries the enrichment outcome
type EnrichByIdentityResponse struct {
	DocumentID               string            `json:"document_id"`
	IdentityMatchFound       bool              `json:"identity_match_found"`
	IdentitySourceDocumentID string            `json:"identity_source_document_id"`
	EnrichmentPreview        []MergeDiffRow    `json:"enrichment_preview"`
	EnrichmentSkipped        []MergeDiffRow    `json:"enrichment_skipped"`
	AppliedFields            []string          `json:"applied_fields"`
	SkippedFields            []string          `json:"skipped_fields"`
	MergeCandidates          []MergeCandidate  `json:"merge_candidates"`
	MissingFields            []string          `json:"missing_fields"`
	ValidationIssues         []ValidationIssue `json:"validation_issues"`
	Payload                  Payload           `json:"payload"`
}

// ConfirmDocumentResponse carries the confirm outcome
type ConfirmDocumentResponse struct {
	DocumentID       string            `json:"document_id"`
	MissingFields    []string          `json:"missing_fields"`
	ValidationIssues []ValidationIssue `json:"validation_issues"`
	Payload          Payload           `json:"payload"`
	MergeCandidates  []MergeCandidate  `json:"merge_candidates"`
	FamilyLinks      []string          `json:"family_links"`
	FamilyReference  FamilyReference   `json:"family_reference"`
}

// ValidationIssue is one structured payload validation failure
type ValidationIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchUploadRequest ingests several documents as one batch
type BatchUploadRequest struct {
	Documents []CreateDocumentRequest `json:"documents" validate:"required,min=1,dive"`
}

// BatchUploadResponse returns per-document results and the resolved clusters
type BatchUploadResponse struct {
	BatchID           string           `json:"batch_id"`
	Documents         []DocumentRecord `json:"documents"`
	Groups            []BatchGroup     `json:"groups"`
	BatchMergeEnabled bool             `json:"batch_merge_enabled"`
}

// BatchGroup is a soft cluster of same-batch documents believed to
// belong to one person
type BatchGroup struct {
	RepresentativeID string   `json:"representative_id"`
	DocumentIDs      []string `json:"document_ids"`
	Quality          int      `json:"quality"`
	Active           bool     `json:"active"`
}
