package models

import (
	"database/sql/driver"
	"strings"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Payload holds the structured field groups extracted from a document.
// Every field is a nullable scalar so the diff engine can enumerate the
// full comparable field set.
type Payload struct {
	Identification Identification `json:"identification"`
	Address        Address        `json:"address"`
	Declarant      Declarant      `json:"declarant"`
	Extra          Extra          `json:"extra"`
}

// Identification holds the identity attributes of the document subject
type Identification struct {
	FirstName      *string `json:"first_name,omitempty"`
	Surname        *string `json:"surname,omitempty"`
	SecondSurname  *string `json:"second_surname,omitempty"`
	NationalID     *string `json:"national_id,omitempty"`
	PassportNumber *string `json:"passport_number,omitempty"`
	BirthDate      *string `json:"birth_date,omitempty"`
	Nationality    *string `json:"nationality,omitempty"`
	BirthCountry   *string `json:"birth_country,omitempty"`
	Sex            *string `json:"sex,omitempty"`
}

// Address holds the residential address fields
type Address struct {
	Street     *string `json:"street,omitempty"`
	Number     *string `json:"number,omitempty"`
	Floor      *string `json:"floor,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	Country    *string `json:"country,omitempty"`
}

// Declarant holds the fields of the person filing on the subject's behalf
type Declarant struct {
	FullName     *string `json:"full_name,omitempty"`
	NationalID   *string `json:"national_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
}

// Extra holds additional personal fields
type Extra struct {
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	CivilStatus *string `json:"civil_status,omitempty"`
	Profession  *string `json:"profession,omitempty"`
	IBAN        *string `json:"iban,omitempty"`
}

var payloadFieldNames = []string{
	"identification.first_name",
	"identification.surname",
	"identification.second_surname",
	"identification.national_id",
	"identification.passport_number",
	"identification.birth_date",
	"identification.nationality",
	"identification.birth_country",
	"identification.sex",
	"address.street",
	"address.number",
	"address.floor",
	"address.postal_code",
	"address.city",
	"address.province",
	"address.country",
	"declarant.full_name",
	"declarant.national_id",
	"declarant.phone",
	"declarant.email",
	"declarant.relationship",
	"extra.phone",
	"extra.email",
	"extra.civil_status",
	"extra.profession",
	"extra.iban",
}

// PayloadFieldNames returns every comparable field in a stable order
func PayloadFieldNames() []string {
	names := make([]string, len(payloadFieldNames))
	copy(names, payloadFieldNames)
	return names
}

func (p *Payload) slot(name string) **string {
	switch name {
	case "identification.first_name":
		return &p.Identification.FirstName
	case "identification.surname":
		return &p.Identification.Surname
	case "identification.second_surname":
		return &p.Identification.SecondSurname
	case "identification.national_id":
		return &p.Identification.NationalID
	case "identification.passport_number":
		return &p.Identification.PassportNumber
	case "identification.birth_date":
		return &p.Identification.BirthDate
	case "identification.nationality":
		return &p.Identification.Nationality
	case "identification.birth_country":
		return &p.Identification.BirthCountry
	case "identification.sex":
		return &p.Identification.Sex
	case "address.street":
		return &p.Address.Street
	case "address.number":
		return &p.Address.Number
	case "address.floor":
		return &p.Address.Floor
	case "address.postal_code":
		return &p.Address.PostalCode
	case "address.city":
		return &p.Address.City
	case "address.province":
		return &p.Address.Province
	case "address.country":
		return &p.Address.Country
	case "declarant.full_name":
		return &p.Declarant.FullName
	case "declarant.national_id":
		return &p.Declarant.NationalID
	case "declarant.phone":
		return &p.Declarant.Phone
	case "declarant.email":
		return &p.Declarant.Email
	case "declarant.relationship":
		return &p.Declarant.Relationship
	case "extra.phone":
		return &p.Extra.Phone
	case "extra.email":
		return &p.Extra.Email
	case "extra.civil_status":
		return &p.Extra.CivilStatus
	case "extra.profession":
		return &p.Extra.Profession
	case "extra.iban":
		return &p.Extra.IBAN
	}
	return nil
}

// Field returns the value of a named field, or "" when unset
func (p *Payload) Field(name string) string {
	slot := p.slot(name)
	if slot == nil || *slot == nil {
		return ""
	}
	return **slot
}

// SetField writes a named field. Returns false for unknown field names.
func (p *Payload) SetField(name, value string) bool {
	slot := p.slot(name)
	if slot == nil {
		return false
	}
	v := value
	*slot = &v
	return true
}

// HasField reports whether a named field is set to a non-blank value
func (p *Payload) HasField(name string) bool {
	return strings.TrimSpace(p.Field(name)) != ""
}

// FilledFieldCount returns the number of non-blank fields
func (p *Payload) FilledFieldCount() int {
	count := 0
	for _, name := range payloadFieldNames {
		if p.HasField(name) {
			count++
		}
	}
	return count
}

// FullName joins the subject name parts for tokenization
func (p *Payload) FullName() string {
	parts := make([]string, 0, 3)
	for _, v := range []*string{p.Identification.FirstName, p.Identification.Surname, p.Identification.SecondSurname} {
		if v != nil && strings.TrimSpace(*v) != "" {
			parts = append(parts, *v)
		}
	}
	return strings.Join(parts, " ")
}

func (p *Payload) Scan(src any) error {
	var jsonb database.JSONB[Payload]
	if err := jsonb.Scan(src); err != nil {
		return err
	}
	*p = jsonb.Data
	return nil
}

func (p Payload) Value() (driver.Value, error) {
	return database.JSONB[Payload]{Data: p}.Value()
}
