package document

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var documentColumns = []string{
	"id", "tenant_id", "source_kind", "workflow_stage", "client_id", "batch_id",
	"payload", "missing_fields", "merge_candidates", "family_links", "family_reference",
	"identity_match_found", "identity_source_document_id", "created_at", "updated_at", "deleted_at",
}

// Repository handles document record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new document repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new document record
func (r *Repository) Create(ctx context.Context, doc *models.DocumentRecord) (*models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Create")
	defer span.End()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.SourceKind == "" {
		doc.SourceKind = models.SourceKindUnknown
	}
	if doc.WorkflowStage == "" {
		doc.WorkflowStage = models.StageUpload
	}
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("document_records")
	sb.Cols("id", "tenant_id", "source_kind", "workflow_stage", "client_id", "batch_id",
		"payload", "missing_fields", "merge_candidates", "family_links", "family_reference",
		"identity_match_found", "identity_source_document_id", "created_at", "updated_at")
	sb.Values(doc.ID, doc.TenantID, doc.SourceKind, doc.WorkflowStage, doc.ClientID, doc.BatchID,
		doc.Payload, doc.MissingFields, doc.MergeCandidates, doc.FamilyLinks, doc.FamilyReference,
		doc.IdentityMatchFound, doc.IdentitySourceDocumentID, doc.CreatedAt, doc.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"document_id": doc.ID}).Error("Failed to create document record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create document record")
	}

	return doc, nil
}

// Get retrieves a document record by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(documentColumns...)
	sb.From("document_records")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var doc models.DocumentRecord
	if err := r.db.GetContext(ctx, &doc, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get document record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get document record")
	}

	return &doc, nil
}

// ListByBatch retrieves the documents uploaded in one batch
func (r *Repository) ListByBatch(ctx context.Context, tenantID string, batchID string) ([]models.DocumentRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.ListByBatch")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(documentColumns...)
	sb.From("document_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("batch_id", batchID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var docs []models.DocumentRecord
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list documents by batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list documents")
	}

	return docs, nil
}

// Update persists the mutable fields of a document record
func (r *Repository) Update(ctx context.Context, doc *models.DocumentRecord) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Update")
	defer span.End()

	doc.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("document_records")
	sb.Set(
		sb.Assign("source_kind", doc.SourceKind),
		sb.Assign("workflow_stage", doc.WorkflowStage),
		sb.Assign("client_id", doc.ClientID),
		sb.Assign("payload", doc.Payload),
		sb.Assign("missing_fields", doc.MissingFields),
		sb.Assign("merge_candidates", doc.MergeCandidates),
		sb.Assign("family_links", doc.FamilyLinks),
		sb.Assign("family_reference", doc.FamilyReference),
		sb.Assign("identity_match_found", doc.IdentityMatchFound),
		sb.Assign("identity_source_document_id", doc.IdentitySourceDocumentID),
		sb.Assign("updated_at", doc.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", doc.ID),
		sb.Equal("tenant_id", doc.TenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"document_id": doc.ID}).Error("Failed to update document record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update document record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", doc.ID))
	}

	return nil
}

// UpdateStage moves a document to a new workflow stage
func (r *Repository) UpdateStage(ctx context.Context, tenantID string, id string, stage models.WorkflowStage) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.UpdateStage")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("document_records")
	sb.Set(
		sb.Assign("workflow_stage", stage),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update document stage")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update document stage")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", id))
	}

	return nil
}

// UpdateCandidates persists a recomputed candidate snapshot
func (r *Repository) UpdateCandidates(ctx context.Context, tenantID string, id string, candidates models.CandidateList) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.UpdateCandidates")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("document_records")
	sb.Set(
		sb.Assign("merge_candidates", candidates),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update document candidates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update document candidates")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", id))
	}

	return nil
}

// Delete soft-deletes a document. Deletion only unlinks; nothing
// cascades to the profile.
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "document.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("document_records")
	sb.Set(
		sb.Assign("deleted_at", now),
		sb.Assign("client_id", nil),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete document record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete document record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("document %s not found", id))
	}

	return nil
}
