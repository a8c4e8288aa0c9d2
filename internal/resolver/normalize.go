package resolver

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultCountryCode is assumed for bare numbers that are too short to
// carry their own country prefix.
const DefaultCountryCode = "52"

// Normalizer canonicalizes raw WhatsApp identifiers for indexing and
// display. The zero value uses DefaultCountryCode.
type Normalizer struct {
	CountryCode string
}

func (n Normalizer) countryCode() string {
	if n.CountryCode == "" {
		return DefaultCountryCode
	}
	return n.CountryCode
}

// NormalizePhone maps an identifier to its canonical comparison form:
// the domain suffix is cut at the first @, group ids (anything with a
// dash) pass through untouched, and everything else collapses to
// digits with a leading +. Numbers of ten digits or fewer get the
// default country code; longer ones are assumed to carry their own.
// Empty input normalizes to the empty string.
func (n Normalizer) NormalizePhone(identifier string) string {
	if identifier == "" {
		return ""
	}
	if i := strings.IndexByte(identifier, '@'); i >= 0 {
		identifier = identifier[:i]
	}
	if strings.Contains(identifier, "-") {
		return identifier
	}

	var sb strings.Builder
	for _, r := range identifier {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && sb.Len() == 0:
			sb.WriteRune(r)
		}
	}
	normalized := sb.String()
	if normalized == "" {
		return ""
	}

	if !strings.HasPrefix(normalized, "+") {
		if len(normalized) <= 10 {
			normalized = "+" + n.countryCode() + normalized
		} else {
			normalized = "+" + normalized
		}
	}
	return normalized
}

// NormalizeName lowers a display name and keeps only letters, digits
// and spaces. The result is for equality checks, never for display.
func (n Normalizer) NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FormatForDisplay renders an identifier for humans. Tokens that
// already contain letters are names and pass through. Group ids render
// as "Group {id}". Ten or more digits format as an international
// number; anything shorter comes back as-is.
func (n Normalizer) FormatForDisplay(identifier string) string {
	if identifier == "" {
		return "Unknown"
	}
	for _, r := range identifier {
		if unicode.IsLetter(r) {
			return identifier
		}
	}

	if i := strings.IndexByte(identifier, '@'); i >= 0 {
		identifier = identifier[:i]
	}
	if strings.Contains(identifier, "-") {
		return "Group " + identifier
	}

	var digits strings.Builder
	for _, r := range identifier {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 10 {
		return identifier
	}

	cc := n.countryCode()
	number := d
	if len(d) > 10 {
		cc = d[:len(d)-10]
		number = d[len(d)-10:]
	}
	return fmt.Sprintf("+%s %s %s-%s", cc, number[:3], number[3:6], number[6:])
}
