package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestIncomingMessage_ParseExtraction(t *testing.T) {
	t.Run("well formed extraction", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"tenant_id": "acme",
			"batch_id": "batch-1",
			"source_kind": "passport",
			"fields": {
				"identification": {"first_name": "Jose", "surname": "Garcia"}
			}
		}`)}

		require.NoError(t, msg.ParseExtraction())
		require.NotNil(t, msg.Extraction)
		assert.Equal(t, "acme", msg.Extraction.TenantID)
		assert.Equal(t, "passport", msg.Extraction.SourceKind)
		assert.Equal(t, "Jose", msg.Extraction.Fields.Field("identification.first_name"))
	})

	t.Run("invalid json", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{not json`)}
		assert.Error(t, msg.ParseExtraction())
		assert.Nil(t, msg.Extraction)
	})

	t.Run("missing fields object", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{"tenant_id": "acme"}`)}
		err := msg.ParseExtraction()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no fields")
	})
}

func TestIncomingMessage_HeaderFallbacks(t *testing.T) {
	t.Run("body values win over headers", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"tenant_id": "header-tenant", "batch_id": "header-batch", "source_kind": "visa"},
			Extraction: &ExtractionMessage{
				TenantID:   "body-tenant",
				BatchID:    "body-batch",
				SourceKind: "passport",
			},
		}
		assert.Equal(t, "body-tenant", msg.GetTenantID())
		assert.Equal(t, "body-batch", msg.GetBatchID())
		assert.Equal(t, "passport", msg.GetSourceKind())
	})

	t.Run("headers fill gaps in the body", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers:    map[string]string{"tenant_id": "header-tenant", "source_kind": "visa"},
			Extraction: &ExtractionMessage{},
		}
		assert.Equal(t, "header-tenant", msg.GetTenantID())
		assert.Equal(t, "visa", msg.GetSourceKind())
	})

	t.Run("unclassified scans default to unknown", func(t *testing.T) {
		msg := &IncomingMessage{Extraction: &ExtractionMessage{}}
		assert.Equal(t, models.SourceKindUnknown, msg.GetSourceKind())
		assert.Equal(t, "", msg.GetTenantID())
		assert.Equal(t, "", msg.GetBatchID())
	})
}
