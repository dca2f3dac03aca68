package models

import (
	"database/sql/driver"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/lib/pq"
)

// ClientProfile is the durable identity entity: the merged view of one
// or more documents belonging to the same person.
type ClientProfile struct {
	ID           string         `json:"id" db:"id"`
	TenantID     string         `json:"tenant_id" db:"tenant_id"`
	Payload      Payload        `json:"profile_payload" db:"profile_payload"`
	DocumentIDs  pq.StringArray `json:"document_ids" db:"document_ids"`
	FieldSources FieldSourceMap `json:"field_sources" db:"field_sources"`
	Version      int            `json:"version" db:"version"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// FieldSourceMap attributes each profile field to the document that
// last wrote it
type FieldSourceMap map[string]string

func (m *FieldSourceMap) Scan(src any) error {
	var jsonb database.JSONB[map[string]string]
	if err := jsonb.Scan(src); err != nil {
		return err
	}
	*m = jsonb.Data
	return nil
}

func (m FieldSourceMap) Value() (driver.Value, error) {
	return database.JSONB[map[string]string]{Data: m}.Value()
}

// ProfileMergeCandidatesRequest recomputes merge candidates for a
// standing client profile
type ProfileMergeCandidatesRequest struct {
	Force bool `json:"force"`
}

// ProfileMergeCandidatesResponse lists profile-level merge candidates
type ProfileMergeCandidatesResponse struct {
	ClientID        string           `json:"client_id"`
	MergeCandidates []MergeCandidate `json:"merge_candidates"`
}
