package data

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uboh-app/uboh-server/internal/normalize"
)

// Stamp formats a creation timestamp the way every persisted record
// carries it: an HTTP date string, e.g. "Mon, 02 Jan 2006 15:04:05 GMT".
func Stamp(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// MessageKey derives the document id for a contact message:
// "<email>_<created with all whitespace removed>".
func MessageKey(email, created string) string {
	return normalize.Email(email) + "_" + stripWhitespace(created)
}

// ScoreKey derives the document id for a score entry:
// "<email>_<created>_<score>".
func ScoreKey(email, created string, score float64) string {
	return normalize.Email(email) + "_" + created + "_" + formatScore(score)
}

// LogKey derives the document id for a log entry. The creation stamp is
// kept as a prefix for readability; the uuid suffix guarantees uniqueness
// when two logs land on the same clock tick.
func LogKey(created string) string {
	return created + "_" + uuid.NewString()
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// formatScore renders a score without a trailing ".0" for whole values,
// matching how score keys have historically been written.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
