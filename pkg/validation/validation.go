// Package validation checks document payloads against business format rules
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Issue codes
const (
	CodeMissing       = "missing"
	CodeInvalidFormat = "invalid_format"
)

var requiredFields = []string{
	"identification.first_name",
	"identification.surname",
	"identification.birth_date",
}

var strictRequiredFields = []string{
	"address.street",
	"address.city",
	"address.postal_code",
	"declarant.full_name",
}

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{10,30}$`)
var phonePattern = regexp.MustCompile(`^\+?[0-9 .\-()]{6,20}$`)

// Validator checks payload completeness and field formats
type Validator struct {
	validate *validator.Validate
}

// New creates a payload validator
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("iban", func(fl validator.FieldLevel) bool {
		value := strings.ReplaceAll(strings.ToUpper(fl.Field().String()), " ", "")
		return ibanPattern.MatchString(value)
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// ValidateRequest validates an inbound request struct using its
// validate tags
func (v *Validator) ValidateRequest(req any) error {
	return v.validate.Struct(req)
}

// MissingFields returns the names of required fields absent from the
// payload. Either identity number satisfies the document requirement.
func (v *Validator) MissingFields(payload *models.Payload, strict bool) []string {
	missing := make([]string, 0)
	for _, field := range requiredFields {
		if !payload.HasField(field) {
			missing = append(missing, field)
		}
	}
	if !payload.HasField("identification.national_id") && !payload.HasField("identification.passport_number") {
		missing = append(missing, "identification.national_id")
	}
	if strict {
		for _, field := range strictRequiredFields {
			if !payload.HasField(field) {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// Issues returns structured validation failures for operator display:
// missing required fields plus format violations on present fields.
func (v *Validator) Issues(payload *models.Payload, strict bool) []models.ValidationIssue {
	issues := make([]models.ValidationIssue, 0)

	for _, field := range v.MissingFields(payload, strict) {
		issues = append(issues, models.ValidationIssue{
			Field:   field,
			Code:    CodeMissing,
			Message: fmt.Sprintf("%s is required", field),
		})
	}

	issues = append(issues, v.formatIssues(payload)...)
	return issues
}

func (v *Validator) formatIssues(payload *models.Payload) []models.ValidationIssue {
	var issues []models.ValidationIssue

	check := func(field, tag, message string) {
		value := payload.Field(field)
		if strings.TrimSpace(value) == "" {
			return
		}
		if err := v.validate.Var(value, tag); err != nil {
			issues = append(issues, models.ValidationIssue{Field: field, Code: CodeInvalidFormat, Message: message})
		}
	}

	check("declarant.email", "email", "declarant email is not a valid address")
	check("extra.email", "email", "email is not a valid address")
	check("declarant.phone", "phone", "declarant phone is not a valid number")
	check("extra.phone", "phone", "phone is not a valid number")
	check("extra.iban", "iban", "iban is not a valid account number")

	if birth := payload.Field("identification.birth_date"); strings.TrimSpace(birth) != "" {
		if identity.NormalizeBirthDate(birth) == "" {
			issues = append(issues, models.ValidationIssue{
				Field:   "identification.birth_date",
				Code:    CodeInvalidFormat,
				Message: "birth date is not a recognized date",
			})
		}
	}

	return issues
}

// FieldIssues validates a single named field value, used by the merge
// apply path to reject bad writes atomically.
func (v *Validator) FieldIssues(field, value string) []models.ValidationIssue {
	probe := models.Payload{}
	probe.SetField(field, value)
	all := v.formatIssues(&probe)
	matched := make([]models.ValidationIssue, 0, len(all))
	for _, issue := range all {
		if issue.Field == field {
			matched = append(matched, issue)
		}
	}
	return matched
}
