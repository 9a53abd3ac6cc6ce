package services

import "strings"

// Sanitize strips a Markdown code fence that models often wrap JSON in.
// It removes at most one leading ```json or ``` and one trailing ```, and
// trims surrounding whitespace. It does not repair the payload.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)

	if len(s) >= 7 && strings.EqualFold(s[:7], "```json") {
		s = s[7:]
	} else if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
