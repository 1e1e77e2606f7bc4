// Package validate holds the pure input checks for inbound records.
package validate

// Advice checks the shape of one advice candidate and returns every
// violation found. An empty result means the candidate is valid. Fields
// arrive as decoded JSON values, so types are checked dynamically.
func Advice(likes, advice, author, category any) []string {
	var violations []string
	if !isNumber(likes) {
		violations = append(violations, "likes should be number")
	}
	if !isNonEmptyString(advice) {
		violations = append(violations, "advice should be string")
	}
	if !isNonEmptyString(author) {
		violations = append(violations, "author should be string")
	}
	if !isNonEmptyString(category) {
		violations = append(violations, "category should be string")
	}
	return violations
}

// isNumber accepts the numeric types a JSON decode or a BSON read can
// produce for a number field.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
