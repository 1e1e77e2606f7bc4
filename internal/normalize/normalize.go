package normalize

import "strings"

// Email returns the canonical form of an email address used in document
// keys and comparisons: surrounding whitespace trimmed, lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
