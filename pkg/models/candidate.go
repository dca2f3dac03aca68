package models

import (
	"database/sql/driver"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Candidate match reasons
const (
	ReasonIDExact             = "id_exact"
	ReasonPassportExact       = "passport_exact"
	ReasonBirthDateAndName    = "birth_date_and_name"
	ReasonNameOnlyHighOverlap = "name_only_high_overlap"
)

// MergeCandidate is one possible same-person match for a subject
// document. Always recomputable from current data, never authoritative.
type MergeCandidate struct {
	ClientID        string    `json:"client_id,omitempty"`
	DocumentID      string    `json:"document_id,omitempty"`
	Score           int       `json:"score"`
	Reasons         []string  `json:"reasons"`
	IdentityOverlap []string  `json:"identity_overlap"`
	NameOverlap     []string  `json:"name_overlap"`
	FillableFields  int       `json:"fillable_fields,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CandidateList is a jsonb-persisted snapshot of computed candidates
type CandidateList []MergeCandidate

func (l *CandidateList) Scan(src any) error {
	var jsonb database.JSONB[[]MergeCandidate]
	if err := jsonb.Scan(src); err != nil {
		return err
	}
	*l = jsonb.Data
	return nil
}

func (l CandidateList) Value() (driver.Value, error) {
	return database.JSONB[[]MergeCandidate]{Data: l}.Value()
}

// FamilyReference records the profile a familiar document was linked to
type FamilyReference struct {
	ClientID         string `json:"client_id,omitempty"`
	SourceDocumentID string `json:"source_document_id,omitempty"`
	Relationship     string `json:"relationship,omitempty"`
	MatchedIdentity  string `json:"matched_identity,omitempty"`
}

func (f *FamilyReference) Scan(src any) error {
	var jsonb database.JSONB[FamilyReference]
	if err := jsonb.Scan(src); err != nil {
		return err
	}
	*f = jsonb.Data
	return nil
}

func (f FamilyReference) Value() (driver.Value, error) {
	return database.JSONB[FamilyReference]{Data: f}.Value()
}
