package genre

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title capitalizes the first letter of each word and lowercases the rest,
// e.g. "hip-hop" becomes "Hip-Hop" and "new age" becomes "New Age".
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}
