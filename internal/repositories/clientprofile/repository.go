package clientprofile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var profileColumns = []string{
	"id", "tenant_id", "profile_payload", "document_ids", "field_sources",
	"version", "created_at", "updated_at",
}

// Repository handles client profile persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new client profile repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new client profile
func (r *Repository) Create(ctx context.Context, profile *models.ClientProfile) (*models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.Create")
	defer span.End()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.FieldSources == nil {
		profile.FieldSources = models.FieldSourceMap{}
	}
	profile.Version = 1
	profile.CreatedAt = time.Now().UTC()
	profile.UpdatedAt = profile.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("client_profiles")
	sb.Cols("id", "tenant_id", "profile_payload", "document_ids", "field_sources",
		"version", "created_at", "updated_at")
	sb.Values(profile.ID, profile.TenantID, profile.Payload, profile.DocumentIDs, profile.FieldSources,
		profile.Version, profile.CreatedAt, profile.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": profile.ID}).Error("Failed to create client profile")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create client profile")
	}

	return profile, nil
}

// Get retrieves a client profile by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(profileColumns...)
	sb.From("client_profiles")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var profile models.ClientProfile
	if err := r.db.GetContext(ctx, &profile, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client profile %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client profile")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client profile")
	}

	return &profile, nil
}

// List retrieves every profile for a tenant. Used as the candidate pool
// for identity matching.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(profileColumns...)
	sb.From("client_profiles")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("updated_at DESC")

	query, args := sb.Build()
	var profiles []models.ClientProfile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list client profiles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list client profiles")
	}

	return profiles, nil
}

// Update persists profile changes with an optimistic version check. A
// concurrent writer bumping the version first turns this into a 409 so
// the caller can reload and retry.
func (r *Repository) Update(ctx context.Context, profile *models.ClientProfile) error {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.Update")
	defer span.End()

	currentVersion := profile.Version
	profile.Version++
	profile.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("client_profiles")
	sb.Set(
		sb.Assign("profile_payload", profile.Payload),
		sb.Assign("document_ids", profile.DocumentIDs),
		sb.Assign("field_sources", profile.FieldSources),
		sb.Assign("version", profile.Version),
		sb.Assign("updated_at", profile.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", profile.ID),
		sb.Equal("tenant_id", profile.TenantID),
		sb.Equal("version", currentVersion),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		profile.Version = currentVersion
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": profile.ID}).Error("Failed to update client profile")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update client profile")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		profile.Version = currentVersion
		exists, err := r.exists(ctx, profile.TenantID, profile.ID)
		if err != nil {
			return err
		}
		if !exists {
			return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client profile %s not found", profile.ID))
		}
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("client profile %s was modified concurrently", profile.ID))
	}

	return nil
}

// LinkDocument appends a document to a profile's membership without
// touching the payload
func (r *Repository) LinkDocument(ctx context.Context, tenantID string, clientID string, documentID string) error {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.LinkDocument")
	defer span.End()

	query := `
		UPDATE client_profiles
		SET document_ids = array_append(document_ids, $1),
			version = version + 1,
			updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND NOT ($1 = ANY(document_ids))
	`

	result, err := r.db.ExecContext(ctx, query, documentID, time.Now().UTC(), clientID, tenantID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"client_id":   clientID,
			"document_id": documentID,
		}).Error("Failed to link document to client profile")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link document to client profile")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Already linked or profile missing. Distinguish the two.
		exists, err := r.exists(ctx, tenantID, clientID)
		if err != nil {
			return err
		}
		if !exists {
			return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client profile %s not found", clientID))
		}
	}

	return nil
}

// UnlinkDocument removes a document from a profile's membership
func (r *Repository) UnlinkDocument(ctx context.Context, tenantID string, clientID string, documentID string) error {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.UnlinkDocument")
	defer span.End()

	query := `
		UPDATE client_profiles
		SET document_ids = array_remove(document_ids, $1),
			version = version + 1,
			updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`

	result, err := r.db.ExecContext(ctx, query, documentID, time.Now().UTC(), clientID, tenantID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to unlink document from client profile")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to unlink document from client profile")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client profile %s not found", clientID))
	}

	return nil
}

// GetByDocumentIDs retrieves the profiles owning any of the given
// documents
func (r *Repository) GetByDocumentIDs(ctx context.Context, tenantID string, documentIDs []string) ([]models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "clientprofile.Repository.GetByDocumentIDs")
	defer span.End()

	if len(documentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, profile_payload, document_ids, field_sources, version, created_at, updated_at
		FROM client_profiles
		WHERE tenant_id = $1 AND document_ids && $2
	`

	var profiles []models.ClientProfile
	if err := r.db.SelectContext(ctx, &profiles, query, tenantID, pq.Array(documentIDs)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client profiles by document ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client profiles")
	}

	return profiles, nil
}

func (r *Repository) exists(ctx context.Context, tenantID string, id string) (bool, error) {
	var count int
	query := "SELECT COUNT(1) FROM client_profiles WHERE id = $1 AND tenant_id = $2"
	if err := r.db.GetContext(ctx, &count, query, id, tenantID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check client profile existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check client profile existence")
	}
	return count > 0, nil
}
