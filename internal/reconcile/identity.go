package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and removes combining marks, so accented and
// unaccented spellings compare equal.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a free-text display name into a comparable key:
// trimmed, lowercased, accent-insensitive, with punctuation treated as word
// separators and whitespace collapsed. Total over all inputs and idempotent;
// an empty or whitespace-only name yields "".
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Key derives the grouping key for an event: the platform-supplied identity
// hint when present, otherwise the normalized display name. Events with
// different hints are never unified through their names; hints take priority.
func Key(ev ParticipantEvent) string {
	if hint := strings.TrimSpace(ev.IdentityHint); hint != "" {
		return hint
	}
	return "name:" + Normalize(ev.DisplayName)
}
