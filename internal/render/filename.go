package render

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeTitle keeps letters, digits, spaces, hyphens and underscores and
// drops trailing spaces.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// FileName is the storage name of a rendered card for an event.
func FileName(title, eventID string) string {
	return fmt.Sprintf("wedding_invitation_%s_%s.png", SanitizeTitle(title), eventID)
}
