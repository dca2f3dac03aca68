package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func payloadWith(fields map[string]string) models.Payload {
	p := models.Payload{}
	for name, value := range fields {
		p.SetField(name, value)
	}
	return p
}

func completePayload() models.Payload {
	return payloadWith(map[string]string{
		"identification.first_name":  "Jose",
		"identification.surname":     "Garcia",
		"identification.birth_date":  "12/05/1995",
		"identification.national_id": "X1234567L",
		"address.street":             "Gran Via",
		"address.city":               "Madrid",
		"address.postal_code":        "28013",
		"declarant.full_name":        "Maria Garcia",
	})
}

func TestValidator_MissingFields(t *testing.T) {
	v := New()

	t.Run("empty payload misses everything required", func(t *testing.T) {
		payload := models.Payload{}
		missing := v.MissingFields(&payload, false)
		assert.ElementsMatch(t, []string{
			"identification.first_name",
			"identification.surname",
			"identification.birth_date",
			"identification.national_id",
		}, missing)
	})

	t.Run("passport satisfies the identity number requirement", func(t *testing.T) {
		payload := payloadWith(map[string]string{
			"identification.first_name":      "Jose",
			"identification.surname":         "Garcia",
			"identification.birth_date":      "12/05/1995",
			"identification.passport_number": "P7654321",
		})
		assert.Empty(t, v.MissingFields(&payload, false))
	})

	t.Run("strict mode adds address and declarant requirements", func(t *testing.T) {
		payload := payloadWith(map[string]string{
			"identification.first_name":  "Jose",
			"identification.surname":     "Garcia",
			"identification.birth_date":  "12/05/1995",
			"identification.national_id": "X1234567L",
		})
		missing := v.MissingFields(&payload, true)
		assert.ElementsMatch(t, []string{
			"address.street",
			"address.city",
			"address.postal_code",
			"declarant.full_name",
		}, missing)
	})

	t.Run("complete payload passes strict mode", func(t *testing.T) {
		payload := completePayload()
		assert.Empty(t, v.MissingFields(&payload, true))
	})

	t.Run("blank values count as missing", func(t *testing.T) {
		payload := completePayload()
		payload.SetField("identification.first_name", "   ")
		missing := v.MissingFields(&payload, false)
		assert.Contains(t, missing, "identification.first_name")
	})
}

func TestValidator_Issues(t *testing.T) {
	v := New()

	t.Run("clean strict payload has no issues", func(t *testing.T) {
		payload := completePayload()
		assert.Empty(t, v.Issues(&payload, true))
	})

	t.Run("missing fields surface with the missing code", func(t *testing.T) {
		payload := models.Payload{}
		issues := v.Issues(&payload, false)
		require.NotEmpty(t, issues)
		for _, issue := range issues {
			assert.Equal(t, CodeMissing, issue.Code)
		}
	})

	t.Run("bad formats surface on present fields", func(t *testing.T) {
		payload := completePayload()
		payload.SetField("declarant.email", "not-an-email")
		payload.SetField("extra.phone", "abc")
		payload.SetField("extra.iban", "NOT_AN_IBAN")

		issues := v.Issues(&payload, false)
		fields := make([]string, 0, len(issues))
		for _, issue := range issues {
			assert.Equal(t, CodeInvalidFormat, issue.Code)
			fields = append(fields, issue.Field)
		}
		assert.ElementsMatch(t, []string{"declarant.email", "extra.phone", "extra.iban"}, fields)
	})

	t.Run("unparsable birth date is a format issue", func(t *testing.T) {
		payload := completePayload()
		payload.SetField("identification.birth_date", "sometime in May")

		issues := v.Issues(&payload, false)
		require.Len(t, issues, 1)
		assert.Equal(t, "identification.birth_date", issues[0].Field)
		assert.Equal(t, CodeInvalidFormat, issues[0].Code)
	})

	t.Run("iban tolerates spacing and case", func(t *testing.T) {
		payload := completePayload()
		payload.SetField("extra.iban", "es91 2100 0418 4502 0005 1332")
		assert.Empty(t, v.Issues(&payload, false))
	})
}

func TestValidator_FieldIssues(t *testing.T) {
	v := New()

	t.Run("only the named field is reported", func(t *testing.T) {
		issues := v.FieldIssues("declarant.email", "nope")
		require.Len(t, issues, 1)
		assert.Equal(t, "declarant.email", issues[0].Field)
	})

	t.Run("valid value has no issues", func(t *testing.T) {
		assert.Empty(t, v.FieldIssues("declarant.email", "jose@example.com"))
		assert.Empty(t, v.FieldIssues("extra.phone", "+34 600 123 456"))
	})

	t.Run("unvalidated fields pass through", func(t *testing.T) {
		assert.Empty(t, v.FieldIssues("address.city", "Madrid"))
	})
}

func TestValidator_ValidateRequest(t *testing.T) {
	v := New()

	type req struct {
		TenantID string `validate:"required"`
	}

	assert.Error(t, v.ValidateRequest(req{}))
	assert.NoError(t, v.ValidateRequest(req{TenantID: "acme"}))
}
