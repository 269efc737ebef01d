// Package normalize canonicalizes raw customer record fields. Every
// transform is idempotent and pure, so a batch can be re-normalized
// without drift and fields never depend on each other.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name canonicalizes a customer name: trim, drop every rune outside
// [A-Za-z0-9@. ], then title-case. Filtering happens before casing so
// removed runes cannot shift word boundaries between applications; the
// transform stays idempotent. Empty or missing input yields "".
//
// A cases.Caser carries transform state and is not safe for concurrent
// use, so each call constructs its own; batches run through this from
// concurrent pipelines.
func Name(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '@', r == '.', r == ' ':
			b.WriteRune(r)
		}
	}
	return cases.Title(language.English).String(strings.TrimSpace(b.String()))
}

// Email canonicalizes an email address: lowercase and trim.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Phone canonicalizes a phone number by keeping digit characters only.
// The result may be empty.
func Phone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
