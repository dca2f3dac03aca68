package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// FamilyService maintains family links between client nodes
type FamilyService struct {
	client *Client
	logger ectologger.Logger
}

// NewFamilyService creates a new family link service
func NewFamilyService(client *Client, logger ectologger.Logger) *FamilyService {
	return &FamilyService{
		client: client,
		logger: logger,
	}
}

// FamilyLink represents a family relationship between two clients
type FamilyLink struct {
	TenantID         string
	ClientID         string
	RelatedClientID  string
	Relationship     string // spouse, child, parent, relative
	SourceDocumentID string
}

// Link creates or updates a family relationship between two clients.
// The link is recorded on a familiar document; the related client may
// not have its own confirmed documents yet.
func (s *FamilyService) Link(ctx context.Context, link *FamilyLink) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FamilyService.Link")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"client_id":    link.ClientID,
		"related_id":   link.RelatedClientID,
		"relationship": link.Relationship,
		"tenant_id":    link.TenantID,
	})

	relationship := link.Relationship
	if relationship == "" {
		relationship = "relative"
	}

	cypher := `
		MATCH (from:Client {id: $from_id, tenant_id: $tenant_id})
		MERGE (to:Client {id: $to_id, tenant_id: $tenant_id})
		MERGE (from)-[r:FAMILY_MEMBER]->(to)
		SET r.relationship = $relationship,
			r.source_document_id = $source_document_id,
			r.deleted_at = NULL
		RETURN r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"from_id":            link.ClientID,
			"to_id":              link.RelatedClientID,
			"tenant_id":          link.TenantID,
			"relationship":       relationship,
			"source_document_id": link.SourceDocumentID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		log.WithError(err).Error("Failed to create family link in graph")
		return fmt.Errorf("failed to create family link in graph: %w", err)
	}

	log.Debug("Created family link in graph")
	return nil
}

// Unlink soft-deletes a family relationship
func (s *FamilyService) Unlink(ctx context.Context, tenantID string, clientID string, relatedClientID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FamilyService.Unlink")
	defer span.End()

	cypher := `
		MATCH (from:Client {id: $from_id, tenant_id: $tenant_id})-[r:FAMILY_MEMBER]->(to:Client {id: $to_id, tenant_id: $tenant_id})
		SET r.deleted_at = datetime()
		RETURN r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"from_id":   clientID,
			"to_id":     relatedClientID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to remove family link in graph")
		return fmt.Errorf("failed to remove family link in graph: %w", err)
	}

	return nil
}

// GetFamily returns the live family links around a client, in both
// directions
func (s *FamilyService) GetFamily(ctx context.Context, tenantID string, clientID string) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.FamilyService.GetFamily")
	defer span.End()

	cypher := `
		MATCH (c:Client {id: $id, tenant_id: $tenant_id})-[r:FAMILY_MEMBER]-(related:Client)
		WHERE r.deleted_at IS NULL
		RETURN r, related
	`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":        clientID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}

		var links []map[string]any
		for result.Next(ctx) {
			record := result.Record()
			relNode, _ := record.Get("r")
			relatedNode, _ := record.Get("related")

			r := relNode.(neo4j.Relationship)
			related := relatedNode.(neo4j.Node)

			links = append(links, map[string]any{
				"related_id":         related.Props["id"],
				"related_name":       related.Props["full_name"],
				"relationship":       r.Props["relationship"],
				"source_document_id": r.Props["source_document_id"],
			})
		}
		return links, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get family links from graph: %w", err)
	}

	if result == nil {
		return nil, nil
	}

	return result.([]map[string]any), nil
}
