package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_FieldAccess(t *testing.T) {
	p := Payload{}

	t.Run("unset field reads empty", func(t *testing.T) {
		assert.Equal(t, "", p.Field("identification.first_name"))
		assert.False(t, p.HasField("identification.first_name"))
	})

	t.Run("set then read", func(t *testing.T) {
		require.True(t, p.SetField("identification.first_name", "Jose"))
		assert.Equal(t, "Jose", p.Field("identification.first_name"))
		assert.True(t, p.HasField("identification.first_name"))
	})

	t.Run("unknown field name", func(t *testing.T) {
		assert.False(t, p.SetField("identification.shoe_size", "44"))
		assert.Equal(t, "", p.Field("identification.shoe_size"))
	})

	t.Run("blank value is set but not present", func(t *testing.T) {
		require.True(t, p.SetField("address.city", "   "))
		assert.False(t, p.HasField("address.city"))
	})
}

func TestPayload_FieldNamesCoverEverySlot(t *testing.T) {
	p := Payload{}
	for _, name := range PayloadFieldNames() {
		require.True(t, p.SetField(name, "x"), "field %s has no slot", name)
	}
	assert.Equal(t, len(PayloadFieldNames()), p.FilledFieldCount())
}

func TestPayload_FullName(t *testing.T) {
	t.Run("joins the present name parts", func(t *testing.T) {
		p := Payload{}
		p.SetField("identification.first_name", "Jose")
		p.SetField("identification.surname", "Garcia")
		p.SetField("identification.second_surname", "Lopez")
		assert.Equal(t, "Jose Garcia Lopez", p.FullName())
	})

	t.Run("skips blank parts", func(t *testing.T) {
		p := Payload{}
		p.SetField("identification.first_name", "Jose")
		p.SetField("identification.surname", "  ")
		assert.Equal(t, "Jose", p.FullName())
	})

	t.Run("empty payload", func(t *testing.T) {
		p := Payload{}
		assert.Equal(t, "", p.FullName())
	})
}
