package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ProfileService projects client profiles as graph nodes
type ProfileService struct {
	client *Client
	logger ectologger.Logger
}

// NewProfileService creates a new profile projection service
func NewProfileService(client *Client, logger ectologger.Logger) *ProfileService {
	return &ProfileService{
		client: client,
		logger: logger,
	}
}

// Upsert creates or updates a client node. Only identity summary
// fields are projected; the profile payload stays in Postgres.
func (s *ProfileService) Upsert(ctx context.Context, profile *models.ClientProfile) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProfileService.Upsert")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"client_id": profile.ID,
		"tenant_id": profile.TenantID,
	})

	props := map[string]any{
		"id":             profile.ID,
		"tenant_id":      profile.TenantID,
		"full_name":      profile.Payload.FullName(),
		"document_count": len(profile.DocumentIDs),
		"version":        profile.Version,
		"created_at":     profile.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"updated_at":     profile.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if id := profile.Payload.Identification.NationalID; id != nil {
		props["national_id"] = *id
	}
	if passport := profile.Payload.Identification.PassportNumber; passport != nil {
		props["passport_number"] = *passport
	}
	if birth := profile.Payload.Identification.BirthDate; birth != nil {
		props["birth_date"] = *birth
	}

	cypher := `
		MERGE (c:Client {id: $id, tenant_id: $tenant_id})
		SET c = $props
		RETURN c
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":        profile.ID,
			"tenant_id": profile.TenantID,
			"props":     props,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		log.WithError(err).Error("Failed to upsert client node in graph")
		return fmt.Errorf("failed to upsert client node in graph: %w", err)
	}

	log.Debug("Upserted client node in graph")
	return nil
}

// Delete soft-deletes a client node by adding a deleted_at property
func (s *ProfileService) Delete(ctx context.Context, tenantID string, clientID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ProfileService.Delete")
	defer span.End()

	cypher := `
		MATCH (c:Client {id: $id, tenant_id: $tenant_id})
		SET c.deleted_at = datetime()
		RETURN c
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":        clientID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to delete client node in graph")
		return fmt.Errorf("failed to delete client node in graph: %w", err)
	}

	return nil
}
