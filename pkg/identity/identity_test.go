package identity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNormalizeIdentifier(t *testing.T) {
	t.Run("strips separators and uppercases", func(t *testing.T) {
		assert.Equal(t, "X1234567L", NormalizeIdentifier("x-1234567 l"))
		assert.Equal(t, "AB123456", NormalizeIdentifier(" ab.12.34.56 "))
	})

	t.Run("strips diacritics", func(t *testing.T) {
		assert.Equal(t, "N123456", NormalizeIdentifier("ñ123456"))
	})

	t.Run("too short after stripping", func(t *testing.T) {
		assert.Equal(t, "", NormalizeIdentifier("A-1-2"))
		assert.Equal(t, "", NormalizeIdentifier("----"))
		assert.Equal(t, "", NormalizeIdentifier(""))
	})

	t.Run("exactly minimum length survives", func(t *testing.T) {
		assert.Equal(t, "AB123", NormalizeIdentifier("ab 123"))
	})
}

func TestNormalizeBirthDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"slash day first", "12/05/1995", "19950512"},
		{"dash day first", "12-05-1995", "19950512"},
		{"iso year first", "1995-05-12", "19950512"},
		{"canonical passthrough", "19950512", "19950512"},
		{"single digit day and month", "3/4/1995", "19950403"},
		{"whitespace trimmed", "  12/05/1995  ", "19950512"},
		{"impossible date", "31/02/2020", ""},
		{"eight digits not a date", "99999999", ""},
		{"no separator", "12.05.1995", ""},
		{"two parts only", "05/1995", ""},
		{"garbage", "unknown", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeBirthDate(tc.in))
		})
	}
}

func TestNormalizeBirthDate_TwoDigitYears(t *testing.T) {
	pivot := time.Now().Year()%100 + 1

	t.Run("above pivot maps to 1900s", func(t *testing.T) {
		assert.Equal(t, "19950512", NormalizeBirthDate("12/05/95"))
	})

	t.Run("at or below pivot maps to 2000s", func(t *testing.T) {
		assert.Equal(t, "20050512", NormalizeBirthDate("12/05/05"))
	})

	t.Run("pivot boundary", func(t *testing.T) {
		above := fmt.Sprintf("12/05/%02d", pivot+1)
		assert.Equal(t, fmt.Sprintf("19%02d0512", pivot+1), NormalizeBirthDate(above))

		at := fmt.Sprintf("12/05/%02d", pivot)
		assert.Equal(t, fmt.Sprintf("20%02d0512", pivot), NormalizeBirthDate(at))
	})
}

func TestNameTokens(t *testing.T) {
	t.Run("strips diacritics and punctuation", func(t *testing.T) {
		assert.Equal(t, []string{"JOSE", "GARCIA", "MARQUEZ"}, NameTokens("José García-Márquez"))
	})

	t.Run("drops single character tokens", func(t *testing.T) {
		assert.Equal(t, []string{"ANA", "TORRES"}, NameTokens("Ana M Torres"))
	})

	t.Run("collapses repeated separators", func(t *testing.T) {
		assert.Equal(t, []string{"MARIA", "LUZ"}, NameTokens("  maria -- luz  "))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NameTokens(""))
		assert.Empty(t, NameTokens(" - "))
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	cases := []struct {
		kind string
		raw  string
	}{
		{KindNationalID, "x-1234567 l"},
		{KindPassport, "ab 123456"},
		{KindBirthDate, "12/05/1995"},
		{KindBirthDate, "1995-05-12"},
		{KindName, "José García-Márquez"},
	}

	for _, tc := range cases {
		t.Run(tc.kind+" "+tc.raw, func(t *testing.T) {
			once := Normalize(tc.kind, tc.raw)
			assert.Equal(t, once, Normalize(tc.kind, once))
		})
	}
}

func TestNormalize_UnknownKind(t *testing.T) {
	assert.Equal(t, "", Normalize("shoe_size", "44"))
}

func TestKeysFromPayload(t *testing.T) {
	t.Run("nil payload yields empty keys", func(t *testing.T) {
		keys := KeysFromPayload(nil)
		assert.Empty(t, keys.NationalID)
		assert.Empty(t, keys.Passport)
		assert.Empty(t, keys.BirthDate)
		assert.Empty(t, keys.NameTokens)
		assert.False(t, keys.HasIdentity())
	})

	t.Run("normalizes every attribute", func(t *testing.T) {
		payload := models.Payload{}
		payload.SetField("identification.first_name", "José")
		payload.SetField("identification.surname", "García")
		payload.SetField("identification.national_id", "x-1234567l")
		payload.SetField("identification.birth_date", "12/05/1995")

		keys := KeysFromPayload(&payload)
		assert.Equal(t, "X1234567L", keys.NationalID)
		assert.Equal(t, "19950512", keys.BirthDate)
		assert.Equal(t, []string{"JOSE", "GARCIA"}, keys.NameTokens)
		assert.True(t, keys.HasIdentity())
	})

	t.Run("passport alone carries identity", func(t *testing.T) {
		payload := models.Payload{}
		payload.SetField("identification.passport_number", "P1234567")

		keys := KeysFromPayload(&payload)
		assert.Equal(t, "P1234567", keys.Passport)
		assert.True(t, keys.HasIdentity())
	})
}
