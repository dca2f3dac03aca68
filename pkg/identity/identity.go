// Package identity canonicalizes raw identity strings into comparable keys
package identity

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field kinds accepted by Normalize
const (
	KindNationalID = "national_id"
	KindPassport   = "passport"
	KindBirthDate  = "birth_date"
	KindName       = "name"
)

// MinIdentifierLength is the shortest usable national ID or passport
// key. Anything shorter is treated as garbage and dropped.
const MinIdentifierLength = 5

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes one identity attribute. It returns "" when
// the value is unusable; it never fails. All functions here are pure
// and safe for concurrent use.
func Normalize(fieldKind, raw string) string {
	switch fieldKind {
	case KindNationalID, KindPassport:
		return NormalizeIdentifier(raw)
	case KindBirthDate:
		return NormalizeBirthDate(raw)
	case KindName:
		return strings.Join(NameTokens(raw), " ")
	}
	return ""
}

// NormalizeIdentifier uppercases and strips everything outside [A-Z0-9].
// Returns "" for values shorter than MinIdentifierLength after
// stripping.
func NormalizeIdentifier(raw string) string {
	upper := strings.ToUpper(StripDiacritics(raw))
	var result strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
		}
	}
	if result.Len() < MinIdentifierLength {
		return ""
	}
	return result.String()
}

// NormalizeBirthDate parses DD/MM/YYYY, DD-MM-YYYY, YYYY-MM-DD and the
// already-canonical YYYYMMDD form and returns a canonical YYYYMMDD
// string, or "" if unparsable. Two-digit years are expanded with a
// pivot at the current two-digit year plus one: values above the pivot
// map to the 1900s, the rest to the 2000s.
func NormalizeBirthDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	if len(value) == 8 && allDigits(value) {
		if _, err := time.Parse("20060102", value); err == nil {
			return value
		}
		return ""
	}

	sep := ""
	switch {
	case strings.Contains(value, "/"):
		sep = "/"
	case strings.Contains(value, "-"):
		sep = "-"
	default:
		return ""
	}

	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return ""
	}

	var year, month, day string
	if len(parts[0]) == 4 {
		year, month, day = parts[0], parts[1], parts[2]
	} else {
		day, month, year = parts[0], parts[1], parts[2]
	}

	if len(year) == 2 && allDigits(year) {
		year = expandTwoDigitYear(year)
	}

	candidate := fmt.Sprintf("%04s%02s%02s", year, month, day)
	if !allDigits(candidate) || len(candidate) != 8 {
		return ""
	}
	if _, err := time.Parse("20060102", candidate); err != nil {
		return ""
	}
	return candidate
}

func expandTwoDigitYear(yy string) string {
	pivot := time.Now().Year()%100 + 1
	value := int(yy[0]-'0')*10 + int(yy[1]-'0')
	if value > pivot {
		return fmt.Sprintf("19%s", yy)
	}
	return fmt.Sprintf("20%s", yy)
}

// NameTokens decomposes and strips diacritics, uppercases, collapses
// non-alphanumeric runs to spaces and returns the tokens of at least
// two characters. Token order carries no meaning for matching.
func NameTokens(raw string) []string {
	upper := strings.ToUpper(StripDiacritics(raw))

	var collapsed strings.Builder
	prevSpace := false
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			collapsed.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			collapsed.WriteRune(' ')
			prevSpace = true
		}
	}

	fields := strings.Fields(collapsed.String())
	tokens := make([]string, 0, len(fields))
	for _, token := range fields {
		if len(token) >= 2 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// StripDiacritics removes combining marks after Unicode decomposition
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
