package identity

import "github.com/Ramsey-B/fern/pkg/models"

// Keys holds the normalized identity attributes of one payload
type Keys struct {
	NationalID string
	Passport   string
	BirthDate  string
	NameTokens []string
}

// KeysFromPayload computes the identity keys for a payload. Unusable
// attributes come back empty rather than failing.
func KeysFromPayload(p *models.Payload) Keys {
	keys := Keys{}
	if p == nil {
		return keys
	}
	if p.Identification.NationalID != nil {
		keys.NationalID = NormalizeIdentifier(*p.Identification.NationalID)
	}
	if p.Identification.PassportNumber != nil {
		keys.Passport = NormalizeIdentifier(*p.Identification.PassportNumber)
	}
	if p.Identification.BirthDate != nil {
		keys.BirthDate = NormalizeBirthDate(*p.Identification.BirthDate)
	}
	keys.NameTokens = NameTokens(p.FullName())
	return keys
}

// HasIdentity reports whether any exact-match identity key is present
func (k Keys) HasIdentity() bool {
	return k.NationalID != "" || k.Passport != ""
}
