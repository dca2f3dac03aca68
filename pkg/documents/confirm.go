package documents

import (
	"context"
	"strings"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/workflow"
)

// Confirm accepts the operator-reviewed payload as final. The document
// lands on its client profile: a linked profile absorbs the fields it
// is missing, an unlinked document founds a new profile. Familiar
// documents additionally sync their family reference.
func (s *Service) Confirm(ctx context.Context, tenantID string, id string, req *models.ConfirmDocumentRequest) (*models.ConfirmDocumentResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.Confirm")
	defer span.End()

	doc, err := s.documents.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	doc.Payload = req.Payload
	doc.MissingFields = s.validator.MissingFields(&doc.Payload, true)
	issues := s.validator.Issues(&doc.Payload, true)

	profile, err := s.landOnProfile(ctx, doc)
	if err != nil {
		return nil, err
	}

	if doc.SourceKind == models.SourceKindFamiliar {
		if err := s.syncFamilyReference(ctx, doc, profile); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"document_id": doc.ID,
			}).Warn("Document confirmed but family reference sync failed")
		}
	}

	wfCtx := s.workflowContext(doc)
	wfCtx.MatchResolved = true
	wfCtx.ValidationPassed = len(doc.MissingFields) == 0 && len(issues) == 0
	if wfCtx.ValidationPassed {
		doc.WorkflowStage = models.StagePrepare
	} else {
		doc.WorkflowStage = workflow.FallbackStep(models.StagePrepare, wfCtx)
	}

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, err
	}

	if s.emitter != nil {
		if err := s.emitter.EmitDocumentConfirmed(ctx, doc); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Document confirmed but event emission failed")
		}
	}

	return &models.ConfirmDocumentResponse{
		DocumentID:       doc.ID,
		MissingFields:    doc.MissingFields,
		ValidationIssues: issues,
		Payload:          doc.Payload,
		MergeCandidates:  doc.MergeCandidates,
		FamilyLinks:      doc.FamilyLinks,
		FamilyReference:  doc.FamilyReference,
	}, nil
}

// landOnProfile merges the confirmed document into its client profile,
// creating the profile when the document is the client's first
func (s *Service) landOnProfile(ctx context.Context, doc *models.DocumentRecord) (*models.ClientProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.landOnProfile")
	defer span.End()

	if doc.ClientID == nil {
		profile, err := s.profiles.Create(ctx, &models.ClientProfile{
			TenantID:     doc.TenantID,
			Payload:      doc.Payload,
			DocumentIDs:  []string{doc.ID},
			FieldSources: sourceAllFields(&doc.Payload, doc.ID),
		})
		if err != nil {
			return nil, err
		}
		clientID := profile.ID
		doc.ClientID = &clientID
		s.projectProfile(ctx, profile)
		return profile, nil
	}

	profile, err := s.profiles.Get(ctx, doc.TenantID, *doc.ClientID)
	if err != nil {
		return nil, err
	}

	// Only fields the profile is missing flow in. Conflicting profile
	// values stand until an operator merges them explicitly.
	rows := merging.Diff(&profile.Payload, &doc.Payload, doc.ID)
	updated, applied, _, err := merging.Apply(profile.Payload, rows, merging.ApplyOptions{})
	if err != nil {
		return nil, err
	}

	profile.Payload = updated
	if profile.FieldSources == nil {
		profile.FieldSources = models.FieldSourceMap{}
	}
	for _, field := range applied {
		profile.FieldSources[field] = doc.ID
	}
	if !containsString(profile.DocumentIDs, doc.ID) {
		profile.DocumentIDs = append(profile.DocumentIDs, doc.ID)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	if s.emitter != nil && len(applied) > 0 {
		if err := s.emitter.EmitProfileMerged(ctx, profile, []string{doc.ID}, applied); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Profile merged but event emission failed")
		}
	}

	s.projectProfile(ctx, profile)
	return profile, nil
}

// syncFamilyReference resolves the client a familiar document declares
// for, records the reference on the document and projects the family
// link into the graph
func (s *Service) syncFamilyReference(ctx context.Context, doc *models.DocumentRecord, profile *models.ClientProfile) error {
	ctx, span := tracing.StartSpan(ctx, "documents.Service.syncFamilyReference")
	defer span.End()

	declarantID := ""
	if doc.Payload.Declarant.NationalID != nil {
		declarantID = identity.NormalizeIdentifier(*doc.Payload.Declarant.NationalID)
	}
	if declarantID == "" {
		return nil
	}

	pool, err := s.profiles.List(ctx, doc.TenantID)
	if err != nil {
		return err
	}

	var declarant *models.ClientProfile
	for i := range pool {
		candidate := &pool[i]
		if candidate.Payload.Identification.NationalID == nil {
			continue
		}
		if identity.NormalizeIdentifier(*candidate.Payload.Identification.NationalID) == declarantID {
			declarant = candidate
			break
		}
	}
	if declarant == nil {
		return nil
	}

	relationship := ""
	if doc.Payload.Declarant.Relationship != nil {
		relationship = strings.ToLower(strings.TrimSpace(*doc.Payload.Declarant.Relationship))
	}

	doc.FamilyReference = models.FamilyReference{
		ClientID:         declarant.ID,
		SourceDocumentID: doc.ID,
		Relationship:     relationship,
		MatchedIdentity:  declarantID,
	}
	if !containsString(doc.FamilyLinks, declarant.ID) {
		doc.FamilyLinks = append(doc.FamilyLinks, declarant.ID)
	}

	if s.family != nil && profile != nil {
		return s.family.Link(ctx, &graph.FamilyLink{
			TenantID:         doc.TenantID,
			ClientID:         declarant.ID,
			RelatedClientID:  profile.ID,
			Relationship:     relationship,
			SourceDocumentID: doc.ID,
		})
	}

	return nil
}

func (s *Service) projectProfile(ctx context.Context, profile *models.ClientProfile) {
	if s.clients == nil {
		return
	}
	if err := s.clients.Upsert(ctx, profile); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"client_id": profile.ID,
		}).Warn("Profile graph projection failed")
	}
}

func sourceAllFields(payload *models.Payload, documentID string) models.FieldSourceMap {
	sources := models.FieldSourceMap{}
	for _, field := range models.PayloadFieldNames() {
		if payload.HasField(field) {
			sources[field] = documentID
		}
	}
	return sources
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
